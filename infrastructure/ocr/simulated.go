package ocr

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

// fixtures are the extraction results the simulated engine picks from
var fixtures = []card.ExtractedFields{
	{
		CompanyName: strPtr("株式会社サンプルテック"),
		PersonName:  strPtr("山田 太郎"),
		Department:  strPtr("営業部"),
		Position:    strPtr("主任"),
		Email:       strPtr("taro.yamada@sample-tech.co.jp"),
		Phone:       strPtr("03-1234-5678"),
		Address:     strPtr("東京都千代田区丸の内1-1-1"),
		Website:     strPtr("https://sample-tech.co.jp"),
	},
	{
		CompanyName: strPtr("グローバルシステムズ株式会社"),
		PersonName:  strPtr("佐藤 美咲"),
		Department:  strPtr("技術開発部"),
		Position:    strPtr("エンジニア"),
		Email:       strPtr("m.sato@global-systems.jp"),
		Phone:       strPtr("06-9999-8888"),
		Address:     strPtr("大阪府大阪市中央区本町2-3-4"),
		Website:     strPtr("https://global-systems.jp"),
	},
	{
		CompanyName: strPtr("イノベーション株式会社"),
		PersonName:  strPtr("鈴木 健太"),
		Department:  strPtr("企画部"),
		Position:    strPtr("マネージャー"),
		Email:       strPtr("k.suzuki@innovation.co.jp"),
		Phone:       strPtr("045-555-1234"),
		Address:     strPtr("神奈川県横浜市西区北幸1-2-3"),
		Website:     strPtr("https://innovation.co.jp"),
	},
}

// SimulatedEngine stands in for a real OCR engine: it waits a configurable
// delay, then returns one of a fixed set of extraction fixtures with a
// confidence in [0.85, 0.99). It honors context cancellation during the
// delay, which is the engine's only suspend point.
type SimulatedEngine struct {
	delay  time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedEngine creates a simulated OCR engine
func NewSimulatedEngine(delay time.Duration, logger *zap.Logger) *SimulatedEngine {
	return &SimulatedEngine{
		delay:  delay,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Extract simulates one extraction pass over the referenced image
func (e *SimulatedEngine) Extract(ctx context.Context, imageRef string) (*card.OcrResult, error) {
	if imageRef == "" {
		return nil, pkgerrors.NewValidationError("image reference cannot be empty")
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, pkgerrors.NewExternalError("ocr cancelled", ctx.Err())
		case <-timer.C:
		}
	}

	e.mu.Lock()
	fields := fixtures[e.rng.Intn(len(fixtures))]
	confidence := 0.85 + e.rng.Float64()*0.14
	e.mu.Unlock()

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to serialize extraction", err)
	}

	e.logger.Debug("Simulated OCR pass",
		zap.String("imageRef", imageRef),
		zap.Float64("confidence", confidence),
	)

	return &card.OcrResult{
		Raw:             string(raw),
		Confidence:      confidence,
		ExtractedFields: fields,
	}, nil
}
