package dynamo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

type fakeAPI struct {
	barber       map[string]types.AttributeValue
	appointments []map[string]types.AttributeValue
	putErr       error

	txErrs []error
	txs    []*dynamodb.TransactWriteItemsInput
	puts   []*dynamodb.PutItemInput
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.barber}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeAPI) UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{Items: f.appointments}, nil
}

func (f *fakeAPI) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.txs = append(f.txs, in)
	if len(f.txErrs) > 0 {
		err := f.txErrs[0]
		f.txErrs = f.txErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func barberItem(version string) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"barberId": &types.AttributeValueMemberS{Value: "b1"},
		"name":     &types.AttributeValueMemberS{Value: "Ann"},
	}
	if version != "" {
		item["scheduleVersion"] = &types.AttributeValueMemberN{Value: version}
	}
	return item
}

func canceled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, c := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(c)}
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func newAppointment() *models.Appointment {
	return &models.Appointment{
		AppointmentID: "a1",
		BarberID:      "b1",
		CustomerName:  "Bob",
		StartTime:     1000,
		EndTime:       2000,
		Status:        "scheduled",
	}
}

func TestCreateAppointmentFirstWriteHasNoVersion(t *testing.T) {
	api := &fakeAPI{barber: barberItem("")}
	s := New(api, TableNames("test-"))

	if err := s.CreateAppointment(context.Background(), newAppointment()); err != nil {
		t.Fatal(err)
	}
	if len(api.txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(api.txs))
	}

	update := api.txs[0].TransactItems[0].Update
	if !strings.Contains(aws.ToString(update.ConditionExpression), "attribute_not_exists(scheduleVersion)") {
		t.Fatalf("condition = %q", aws.ToString(update.ConditionExpression))
	}
	if _, ok := update.ExpressionAttributeValues[":version"]; ok {
		t.Fatal("unused :version placeholder would be rejected")
	}

	put := api.txs[0].TransactItems[1].Put
	if aws.ToString(put.TableName) != "test-Appointments" {
		t.Fatalf("table = %s", aws.ToString(put.TableName))
	}
	if aws.ToString(put.ConditionExpression) != "attribute_not_exists(appointmentId)" {
		t.Fatalf("put condition = %q", aws.ToString(put.ConditionExpression))
	}
}

func TestCreateAppointmentRetriesWhenScheduleChanges(t *testing.T) {
	api := &fakeAPI{
		barber: barberItem("3"),
		txErrs: []error{canceled("ConditionalCheckFailed", "None"), nil},
	}
	s := New(api, TableNames(""))

	if err := s.CreateAppointment(context.Background(), newAppointment()); err != nil {
		t.Fatal(err)
	}
	if len(api.txs) != 2 {
		t.Fatalf("expected a retry, got %d transactions", len(api.txs))
	}

	v := api.txs[1].TransactItems[0].Update.ExpressionAttributeValues[":version"]
	if n, ok := v.(*types.AttributeValueMemberN); !ok || n.Value != "3" {
		t.Fatalf("version placeholder = %#v", v)
	}
}

func TestCreateAppointmentGivesUpAfterRepeatedContention(t *testing.T) {
	errs := make([]error, maxWriteAttempts)
	for i := range errs {
		errs[i] = canceled("ConditionalCheckFailed", "None")
	}
	api := &fakeAPI{barber: barberItem("1"), txErrs: errs}
	s := New(api, TableNames(""))

	err := s.CreateAppointment(context.Background(), newAppointment())
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(api.txs) != maxWriteAttempts {
		t.Fatalf("got %d attempts", len(api.txs))
	}
}

func TestCreateAppointmentOverlap(t *testing.T) {
	other, err := attributevalue.MarshalMap(models.Appointment{
		AppointmentID: "other",
		BarberID:      "b1",
		StartTime:     1500,
		EndTime:       2500,
		Status:        "scheduled",
	})
	if err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{barber: barberItem("1"), appointments: []map[string]types.AttributeValue{other}}
	s := New(api, TableNames(""))

	err = s.CreateAppointment(context.Background(), newAppointment())
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(api.txs) != 0 {
		t.Fatal("conflicting write must not reach the transaction")
	}
}

func TestUpdateAppointmentMissing(t *testing.T) {
	api := &fakeAPI{
		barber: barberItem("1"),
		txErrs: []error{canceled("None", "ConditionalCheckFailed")},
	}
	s := New(api, TableNames(""))

	err := s.UpdateAppointment(context.Background(), newAppointment())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAppointmentUnknownBarber(t *testing.T) {
	s := New(&fakeAPI{}, TableNames(""))

	err := s.CreateAppointment(context.Background(), newAppointment())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	api := &fakeAPI{putErr: &types.ConditionalCheckFailedException{}}
	s := New(api, TableNames(""))

	err := s.CreateUser(context.Background(), &models.User{Username: "admin"})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if aws.ToString(api.puts[0].ConditionExpression) != "attribute_not_exists(username)" {
		t.Fatalf("condition = %q", aws.ToString(api.puts[0].ConditionExpression))
	}
}

func TestDateRangeQuery(t *testing.T) {
	s := New(&fakeAPI{}, TableNames(""))
	from, to := int64(10), int64(20)

	cases := []struct {
		filter storage.AppointmentFilter
		want   string
	}{
		{storage.AppointmentFilter{}, "barberId = :barberId"},
		{storage.AppointmentFilter{StartFrom: &from}, "barberId = :barberId AND startTime >= :from"},
		{storage.AppointmentFilter{StartTo: &to}, "barberId = :barberId AND startTime <= :to"},
		{storage.AppointmentFilter{StartFrom: &from, StartTo: &to}, "barberId = :barberId AND startTime BETWEEN :from AND :to"},
	}

	for _, tc := range cases {
		in := s.dateRangeQuery("b1", tc.filter)
		if got := aws.ToString(in.KeyConditionExpression); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
		if aws.ToString(in.IndexName) != DateIndex {
			t.Errorf("index = %s", aws.ToString(in.IndexName))
		}
		if in.FilterExpression != nil {
			t.Errorf("unexpected filter %q", aws.ToString(in.FilterExpression))
		}
	}
}

func TestDateRangeQueryEndAfter(t *testing.T) {
	s := New(&fakeAPI{}, TableNames(""))
	to, endAfter := int64(20), int64(5)

	in := s.dateRangeQuery("b1", storage.AppointmentFilter{StartTo: &to, EndAfter: &endAfter})
	if got := aws.ToString(in.KeyConditionExpression); got != "barberId = :barberId AND startTime <= :to" {
		t.Fatalf("key condition = %q", got)
	}
	if got := aws.ToString(in.FilterExpression); got != "endTime > :endAfter" {
		t.Fatalf("filter = %q", got)
	}
	if _, ok := in.ExpressionAttributeValues[":endAfter"]; !ok {
		t.Fatal("missing :endAfter value")
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions(TableNames("dev-"))
	if len(defs) != 5 {
		t.Fatalf("got %d tables", len(defs))
	}

	in := createTableInput(defs[2])
	if aws.ToString(in.TableName) != "dev-Appointments" {
		t.Fatalf("table = %s", aws.ToString(in.TableName))
	}
	if len(in.KeySchema) != 2 || len(in.AttributeDefinitions) != 3 {
		t.Fatalf("key schema %d, attributes %d", len(in.KeySchema), len(in.AttributeDefinitions))
	}
	if len(in.GlobalSecondaryIndexes) != 1 || aws.ToString(in.GlobalSecondaryIndexes[0].IndexName) != DateIndex {
		t.Fatalf("indexes = %+v", in.GlobalSecondaryIndexes)
	}

	if in := createTableInput(defs[0]); in.GlobalSecondaryIndexes != nil {
		t.Fatal("barbers table has no indexes")
	}
}
