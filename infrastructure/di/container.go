package di

import (
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/application/services"
	"meishi-backend/application/workflow"
	"meishi-backend/infrastructure/config"
	"meishi-backend/pkg/auth"
	"meishi-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	CardRepo        ports.CardRepository
	EventBus        ports.EventBus
	OCRService      ports.OCRService
	SessionStore    workflow.Store
	CardService     *services.CardService
	WorkflowManager *workflow.Manager
	Metrics         *observability.Metrics
	Tracer          *observability.Tracer
	JWTValidator    *auth.JWTValidator
	JWTGenerator    *auth.JWTGenerator
}
