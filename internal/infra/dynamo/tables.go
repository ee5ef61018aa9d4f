package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DateIndex lists a barber's appointments ordered by startTime.
const DateIndex = "DateIndex"

type Tables struct {
	Barbers      string
	Services     string
	Appointments string
	Users        string
	AuditLogs    string
}

func TableNames(prefix string) Tables {
	return Tables{
		Barbers:      prefix + "Barbers",
		Services:     prefix + "Services",
		Appointments: prefix + "Appointments",
		Users:        prefix + "Users",
		AuditLogs:    prefix + "AuditLogs",
	}
}

type AttributeDefinition struct {
	Name       string
	ScalarType types.ScalarAttributeType
}

type SecondaryIndexDefinition struct {
	IndexName string

	PartitionKeyName string
	SortKeyName      string
}

type TableDefinition struct {
	TableName string

	PartitionKey         AttributeDefinition
	SortKey              AttributeDefinition
	AdditionalAttributes []AttributeDefinition

	SecondaryIndexes []SecondaryIndexDefinition
}

func Definitions(t Tables) []TableDefinition {
	str := func(name string) AttributeDefinition {
		return AttributeDefinition{Name: name, ScalarType: types.ScalarAttributeTypeS}
	}

	return []TableDefinition{
		{TableName: t.Barbers, PartitionKey: str("barberId")},
		{TableName: t.Services, PartitionKey: str("serviceId")},
		{
			TableName:    t.Appointments,
			PartitionKey: str("barberId"),
			SortKey:      str("appointmentId"),
			AdditionalAttributes: []AttributeDefinition{
				{Name: "startTime", ScalarType: types.ScalarAttributeTypeN},
			},
			SecondaryIndexes: []SecondaryIndexDefinition{
				{IndexName: DateIndex, PartitionKeyName: "barberId", SortKeyName: "startTime"},
			},
		},
		{TableName: t.Users, PartitionKey: str("username")},
		{TableName: t.AuditLogs, PartitionKey: str("id")},
	}
}

type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

func createTableInput(def TableDefinition) *dynamodb.CreateTableInput {
	attributes := []types.AttributeDefinition{{
		AttributeName: aws.String(def.PartitionKey.Name),
		AttributeType: def.PartitionKey.ScalarType,
	}}
	if def.SortKey.Name != "" {
		attributes = append(attributes, types.AttributeDefinition{
			AttributeName: aws.String(def.SortKey.Name),
			AttributeType: def.SortKey.ScalarType,
		})
	}
	for _, a := range def.AdditionalAttributes {
		attributes = append(attributes, types.AttributeDefinition{
			AttributeName: aws.String(a.Name),
			AttributeType: a.ScalarType,
		})
	}

	var indexes []types.GlobalSecondaryIndex
	for _, idx := range def.SecondaryIndexes {
		indexes = append(indexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.IndexName),
			KeySchema:  keySchema(idx.PartitionKeyName, idx.SortKeyName),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	return &dynamodb.CreateTableInput{
		TableName:              aws.String(def.TableName),
		AttributeDefinitions:   attributes,
		KeySchema:              keySchema(def.PartitionKey.Name, def.SortKey.Name),
		BillingMode:            types.BillingModePayPerRequest,
		GlobalSecondaryIndexes: indexes,
	}
}

func keySchema(partitionKey, sortKey string) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{{
		AttributeName: aws.String(partitionKey),
		KeyType:       types.KeyTypeHash,
	}}
	if sortKey != "" {
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(sortKey),
			KeyType:       types.KeyTypeRange,
		})
	}
	return schema
}

// CreateTable creates the table and waits until it is active.
func CreateTable(ctx context.Context, client TableAPI, def TableDefinition) error {
	if _, err := client.CreateTable(ctx, createTableInput(def)); err != nil {
		return fmt.Errorf("create table %s: %w", def.TableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(def.TableName),
	}, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("wait for table %s: %w", def.TableName, err)
	}
	return nil
}

// EnsureTables creates the tables that do not exist yet.
func EnsureTables(ctx context.Context, client TableAPI, t Tables) error {
	for _, def := range Definitions(t) {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(def.TableName),
		})
		if err == nil {
			continue
		}

		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("describe table %s: %w", def.TableName, err)
		}

		log.Printf("dynamo: creating table %s", def.TableName)
		if err := CreateTable(ctx, client, def); err != nil {
			return err
		}
	}
	return nil
}
