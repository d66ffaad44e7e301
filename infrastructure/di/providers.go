package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/application/services"
	"meishi-backend/application/workflow"
	"meishi-backend/infrastructure/config"
	"meishi-backend/infrastructure/messaging"
	"meishi-backend/infrastructure/messaging/eventbridge"
	"meishi-backend/infrastructure/ocr"
	"meishi-backend/infrastructure/persistence/dynamodb"
	"meishi-backend/infrastructure/persistence/memory"
	"meishi-backend/pkg/auth"
	"meishi-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideTracer creates a tracer when tracing is enabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("meishi-backend")
}

// ProvideMetrics creates a metrics instance when metrics are enabled
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("Meishi/%s", cfg.Environment)
	return observability.NewMetrics(client, namespace, logger)
}

// ProvideCardRepository creates the card repository configured for this
// deployment: an in-memory store for local use, DynamoDB otherwise
func ProvideCardRepository(client *awsdynamodb.Client, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.CardRepository {
	if cfg.Persistence == config.PersistenceDynamoDB {
		return dynamodb.NewCardRepository(client, cfg.DynamoDBTable, tracer, logger)
	}
	return memory.NewCardRepository()
}

// ProvideEventBus creates the domain event publisher
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.EventBus == config.EventBusEventBridge {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return messaging.NewNoopBus(logger)
}

// ProvideOCRService creates the OCR engine wrapped in a circuit breaker
func ProvideOCRService(cfg *config.Config, logger *zap.Logger) ports.OCRService {
	return ocr.NewBreakerEngine(ocr.NewSimulatedEngine(cfg.OCRDelay, logger), logger)
}

// ProvideSessionStore creates the upload session store
func ProvideSessionStore(cfg *config.Config) workflow.Store {
	return memory.NewSessionStore(cfg.SessionTTL)
}

// ProvideCardService creates the card service
func ProvideCardService(repo ports.CardRepository, bus ports.EventBus, metrics *observability.Metrics, logger *zap.Logger) *services.CardService {
	return services.NewCardService(repo, bus, metrics, logger)
}

// ProvideWorkflowManager creates the upload workflow manager
func ProvideWorkflowManager(store workflow.Store, cards *services.CardService, ocrService ports.OCRService, metrics *observability.Metrics, logger *zap.Logger) *workflow.Manager {
	return workflow.NewManager(store, cards, ocrService, metrics, logger)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(jwtConfig(cfg))
}

// ProvideJWTGenerator creates the token generator
func ProvideJWTGenerator(cfg *config.Config) (*auth.JWTGenerator, error) {
	return auth.NewJWTGenerator(jwtConfig(cfg))
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "development-secret-change-in-production"
	}
	return auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{"meishi-api"},
	}
}
