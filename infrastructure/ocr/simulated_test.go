package ocr

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
)

func TestSimulatedEngine_Extract(t *testing.T) {
	engine := NewSimulatedEngine(0, zap.NewNop())

	for i := 0; i < 20; i++ {
		result, err := engine.Extract(context.Background(), "uploads/card.png")
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.Confidence, 0.85)
		assert.Less(t, result.Confidence, 0.99)

		// The extraction is always one of the known fixtures
		found := false
		for _, f := range fixtures {
			if *f.CompanyName == *result.ExtractedFields.CompanyName {
				found = true
				break
			}
		}
		assert.True(t, found, "unknown fixture %q", *result.ExtractedFields.CompanyName)

		// Raw is the JSON rendering of the extracted fields
		var decoded card.ExtractedFields
		require.NoError(t, json.Unmarshal([]byte(result.Raw), &decoded))
		assert.Equal(t, *result.ExtractedFields.Email, *decoded.Email)
	}
}

func TestSimulatedEngine_RejectsEmptyImageRef(t *testing.T) {
	engine := NewSimulatedEngine(0, zap.NewNop())

	_, err := engine.Extract(context.Background(), "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSimulatedEngine_Cancellation(t *testing.T) {
	engine := NewSimulatedEngine(time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := engine.Extract(ctx, "uploads/card.png")
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.True(t, pkgerrors.IsExternal(err))
	case <-time.After(2 * time.Second):
		t.Fatal("extraction did not observe cancellation")
	}
}

func TestBreakerEngine_PassesThrough(t *testing.T) {
	engine := NewBreakerEngine(NewSimulatedEngine(0, zap.NewNop()), zap.NewNop())

	result, err := engine.Extract(context.Background(), "uploads/card.png")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Raw)
}

func TestBreakerEngine_OpensAfterConsecutiveFailures(t *testing.T) {
	engine := NewBreakerEngine(NewSimulatedEngine(0, zap.NewNop()), zap.NewNop())

	// Empty imageRef fails inside the breaker
	for i := 0; i < 5; i++ {
		_, err := engine.Extract(context.Background(), "")
		assert.True(t, pkgerrors.IsValidation(err))
	}

	// The sixth call trips on the open breaker before reaching the engine
	_, err := engine.Extract(context.Background(), "uploads/card.png")
	assert.True(t, pkgerrors.IsExternal(err))
}
