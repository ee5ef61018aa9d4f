package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/app"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
)

var ginLambda *ginadapter.GinLambda

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	cfg := config.Load()
	if os.Getenv("STORAGE_DRIVER") == "" {
		cfg.StorageDriver = config.StorageDynamoDB
	}

	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	ginLambda = ginadapter.New(a.Router())
	lambda.Start(handler)
}
