package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/app"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/handlers"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/dynamo"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

func main() {
	createTables := flag.Bool("tables", false, "create missing DynamoDB tables first")
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "admin", "admin password")
	email := flag.String("email", "admin@barbershop.com", "admin email")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *createTables && cfg.StorageDriver == config.StorageDynamoDB {
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			log.Fatalf("dynamodb: %v", err)
		}
		if err := dynamo.EnsureTables(ctx, client, dynamo.TableNames(cfg.DynamoDBTablePrefix)); err != nil {
			log.Fatalf("create tables: %v", err)
		}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	err = a.Store.CreateUser(ctx, &models.User{
		Username:     *username,
		PasswordHash: hash,
		Email:        *email,
		Role:         handlers.RoleAdmin,
	})
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		log.Printf("user %q already exists", *username)
	case err != nil:
		log.Fatalf("create admin: %v", err)
	default:
		log.Printf("admin user %q created", *username)
	}
}
