package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metric names emitted by the service
const (
	MetricCardsCreated   = "CardsCreated"
	MetricCardsUpdated   = "CardsUpdated"
	MetricCardsDeleted   = "CardsDeleted"
	MetricOCRInvocations = "OCRInvocations"
	MetricOCRFailures    = "OCRFailures"
)

// Metrics publishes service counters to CloudWatch. A nil Metrics is a
// valid no-op, so call sites never need to guard.
type Metrics struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

// NewMetrics creates a CloudWatch-backed metrics publisher
func NewMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// Count emits a counter increment. Publishing is fire-and-forget: a metrics
// failure must never fail the operation being measured.
func (m *Metrics) Count(name string, value float64) {
	if m == nil || m.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(m.namespace),
			MetricData: []types.MetricDatum{
				{
					MetricName: aws.String(name),
					Value:      aws.Float64(value),
					Unit:       types.StandardUnitCount,
					Timestamp:  aws.Time(time.Now()),
				},
			},
		})
		if err != nil && m.logger != nil {
			m.logger.Debug("Failed to publish metric",
				zap.String("metric", name),
				zap.Error(err),
			)
		}
	}()
}
