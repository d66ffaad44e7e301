package ocr

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
)

// BreakerEngine wraps an OCR engine with a circuit breaker so a failing
// external engine stops being hammered. Workflow callers still see a plain
// error: the breaker opening is an ExternalFailure like any other.
type BreakerEngine struct {
	inner   ports.OCRService
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerEngine wraps the given engine with a circuit breaker
func NewBreakerEngine(inner ports.OCRService, logger *zap.Logger) *BreakerEngine {
	settings := gobreaker.Settings{
		Name:    "ocr-engine",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("OCR circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerEngine{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Extract invokes the wrapped engine through the breaker
func (e *BreakerEngine) Extract(ctx context.Context, imageRef string) (*card.OcrResult, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.inner.Extract(ctx, imageRef)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, pkgerrors.NewExternalError("ocr engine unavailable", err)
		}
		return nil, err
	}

	return result.(*card.OcrResult), nil
}
