package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/domain/card"
	pkgerrors "meishi-backend/pkg/errors"
	"meishi-backend/pkg/observability"
)

const (
	cardKeyPrefix = "CARD#"
	metadataSK    = "METADATA"
)

// cardItem is the DynamoDB representation of a card
type cardItem struct {
	PK          string         `dynamodbav:"PK"`
	SK          string         `dynamodbav:"SK"`
	CardID      string         `dynamodbav:"CardID"`
	ImageRef    string         `dynamodbav:"ImageRef"`
	OCR         ocrItem        `dynamodbav:"OCR"`
	CompanyName string         `dynamodbav:"CompanyName"`
	PersonName  string         `dynamodbav:"PersonName"`
	Department  string         `dynamodbav:"Department"`
	Position    string         `dynamodbav:"Position"`
	Email       string         `dynamodbav:"Email"`
	EmailLower  string         `dynamodbav:"EmailLower"`
	Phone       string         `dynamodbav:"Phone"`
	Address     string         `dynamodbav:"Address"`
	Website     string         `dynamodbav:"Website"`
	Status      string         `dynamodbav:"Status"`
	CreatedAt   string         `dynamodbav:"CreatedAt"`
	UpdatedAt   string         `dynamodbav:"UpdatedAt"`
}

type ocrItem struct {
	Raw        string            `dynamodbav:"Raw"`
	Confidence float64           `dynamodbav:"Confidence"`
	Fields     map[string]string `dynamodbav:"Fields"`
}

// CardRepository implements ports.CardRepository on DynamoDB, so the same
// repository contract can run against a durable store. Filtering that needs
// case-insensitive substring matching happens in memory after the scan; the
// record set this service manages is dashboard-sized, not analytical.
type CardRepository struct {
	client    *awsdynamodb.Client
	tableName string
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewCardRepository creates a DynamoDB-backed card repository
func NewCardRepository(client *awsdynamodb.Client, tableName string, tracer *observability.Tracer, logger *zap.Logger) *CardRepository {
	return &CardRepository{
		client:    client,
		tableName: tableName,
		tracer:    tracer,
		logger:    logger,
	}
}

// Query returns one filtered, sorted, paginated page of cards
func (r *CardRepository) Query(ctx context.Context, q ports.CardQuery) (*ports.CardPage, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, pkgerrors.NewValidationError("page and page_size must be >= 1")
	}

	cards, err := r.scanCards(ctx, statusFilterExpression(q.StatusFilter))
	if err != nil {
		return nil, err
	}

	filtered := make([]*card.Card, 0, len(cards))
	for _, c := range cards {
		if c.MatchesSearch(q.Search) {
			filtered = append(filtered, c)
		}
	}

	card.SortByCreatedAtDesc(filtered)

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	totalPages := total / q.PageSize
	if total%q.PageSize > 0 {
		totalPages++
	}

	return &ports.CardPage{
		Data:       filtered[start:end],
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID retrieves a card by its ID
func (r *CardRepository) GetByID(ctx context.Context, id card.CardID) (*card.Card, error) {
	var result *awsdynamodb.GetItemOutput
	err := r.tracer.TraceFunction(ctx, "dynamodb.get_card", func(ctx context.Context) error {
		var err error
		result, err = r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
			TableName: aws.String(r.tableName),
			Key:       cardKey(id),
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to get card", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("card")
	}

	var item cardItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal card", err)
	}

	return item.toCard()
}

// Create stores a new card
func (r *CardRepository) Create(ctx context.Context, c *card.Card) (*card.Card, error) {
	av, err := attributevalue.MarshalMap(toItem(c))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal card", err)
	}

	err = r.tracer.TraceFunction(ctx, "dynamodb.put_card", func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to store card", err)
	}

	return c, nil
}

// Update merges the patch into the identified card. The merge happens on the
// reconstructed entity so domain rules (immutable id/createdAt, refreshed
// updatedAt) hold for the durable store the same way they do in memory.
func (r *CardRepository) Update(ctx context.Context, id card.CardID, patch card.Patch) (*card.Card, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := existing.ApplyPatch(patch); err != nil {
		return nil, err
	}

	av, err := attributevalue.MarshalMap(toItem(existing))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal card", err)
	}

	err = r.tracer.TraceFunction(ctx, "dynamodb.update_card", func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		return err
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, pkgerrors.NewNotFoundError("card")
		}
		return nil, pkgerrors.NewInternalError("failed to update card", err)
	}

	return existing, nil
}

// Delete removes a card; unknown ids return false, not an error
func (r *CardRepository) Delete(ctx context.Context, id card.CardID) (bool, error) {
	var result *awsdynamodb.DeleteItemOutput
	err := r.tracer.TraceFunction(ctx, "dynamodb.delete_card", func(ctx context.Context) error {
		var err error
		result, err = r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
			TableName:    aws.String(r.tableName),
			Key:          cardKey(id),
			ReturnValues: types.ReturnValueAllOld,
		})
		return err
	})
	if err != nil {
		return false, pkgerrors.NewInternalError("failed to delete card", err)
	}

	return len(result.Attributes) > 0, nil
}

// FindDuplicates returns candidates whose email matches case-insensitively.
// The scan filters on the precomputed lowercase email attribute; scoring and
// ordering stay in the domain matcher.
func (r *CardRepository) FindDuplicates(ctx context.Context, email string, excludeID card.CardID) ([]card.DuplicateCandidate, error) {
	if email == "" {
		return nil, nil
	}

	filter := expression.Name("EmailLower").Equal(expression.Value(strings.ToLower(email)))
	cards, err := r.scanCards(ctx, &filter)
	if err != nil {
		return nil, err
	}

	return card.MatchDuplicates(cards, email, excludeID), nil
}

// All returns every card ordered createdAt descending
func (r *CardRepository) All(ctx context.Context) ([]*card.Card, error) {
	cards, err := r.scanCards(ctx, nil)
	if err != nil {
		return nil, err
	}
	card.SortByCreatedAtDesc(cards)
	return cards, nil
}

// scanCards scans the table, following pagination, with an optional filter
func (r *CardRepository) scanCards(ctx context.Context, filter *expression.ConditionBuilder) ([]*card.Card, error) {
	keyCond := expression.Name("SK").Equal(expression.Value(metadataSK))
	builder := expression.NewBuilder()
	if filter != nil {
		builder = builder.WithFilter(keyCond.And(*filter))
	} else {
		builder = builder.WithFilter(keyCond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build scan expression", err)
	}

	var cards []*card.Card
	var lastKey map[string]types.AttributeValue

	for {
		var result *awsdynamodb.ScanOutput
		err := r.tracer.TraceFunction(ctx, "dynamodb.scan_cards", func(ctx context.Context) error {
			var err error
			result, err = r.client.Scan(ctx, &awsdynamodb.ScanInput{
				TableName:                 aws.String(r.tableName),
				FilterExpression:          expr.Filter(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ExclusiveStartKey:         lastKey,
			})
			return err
		})
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to scan cards", err)
		}

		for _, raw := range result.Items {
			var item cardItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable card item", zap.Error(err))
				continue
			}
			c, err := item.toCard()
			if err != nil {
				r.logger.Warn("Skipping invalid card item",
					zap.String("cardID", item.CardID),
					zap.Error(err),
				)
				continue
			}
			cards = append(cards, c)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return cards, nil
}

// statusFilterExpression maps a status filter to a scan condition;
// "all" and empty mean no restriction
func statusFilterExpression(filter string) *expression.ConditionBuilder {
	if filter == "" || filter == "all" {
		return nil
	}
	cond := expression.Name("Status").Equal(expression.Value(filter))
	return &cond
}

func cardKey(id card.CardID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: cardKeyPrefix + id.String()},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func toItem(c *card.Card) cardItem {
	f := c.Fields()
	ocr := c.OCR()

	fields := map[string]string{}
	setIf := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setIf("companyName", ocr.ExtractedFields.CompanyName)
	setIf("personName", ocr.ExtractedFields.PersonName)
	setIf("department", ocr.ExtractedFields.Department)
	setIf("position", ocr.ExtractedFields.Position)
	setIf("email", ocr.ExtractedFields.Email)
	setIf("phone", ocr.ExtractedFields.Phone)
	setIf("address", ocr.ExtractedFields.Address)
	setIf("website", ocr.ExtractedFields.Website)

	return cardItem{
		PK:          cardKeyPrefix + c.ID().String(),
		SK:          metadataSK,
		CardID:      c.ID().String(),
		ImageRef:    c.ImageRef(),
		OCR:         ocrItem{Raw: ocr.Raw, Confidence: ocr.Confidence, Fields: fields},
		CompanyName: f.CompanyName,
		PersonName:  f.PersonName,
		Department:  f.Department,
		Position:    f.Position,
		Email:       f.Email,
		EmailLower:  strings.ToLower(f.Email),
		Phone:       f.Phone,
		Address:     f.Address,
		Website:     f.Website,
		Status:      string(c.Status()),
		CreatedAt:   c.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func (item cardItem) toCard() (*card.Card, error) {
	id, err := card.NewCardIDFromString(item.CardID)
	if err != nil {
		return nil, fmt.Errorf("invalid card id %q: %w", item.CardID, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updatedAt: %w", err)
	}

	getIf := func(key string) *string {
		if v, ok := item.OCR.Fields[key]; ok {
			return &v
		}
		return nil
	}

	ocr := card.OcrResult{
		Raw:        item.OCR.Raw,
		Confidence: item.OCR.Confidence,
		ExtractedFields: card.ExtractedFields{
			CompanyName: getIf("companyName"),
			PersonName:  getIf("personName"),
			Department:  getIf("department"),
			Position:    getIf("position"),
			Email:       getIf("email"),
			Phone:       getIf("phone"),
			Address:     getIf("address"),
			Website:     getIf("website"),
		},
	}

	fields := card.Fields{
		CompanyName: item.CompanyName,
		PersonName:  item.PersonName,
		Department:  item.Department,
		Position:    item.Position,
		Email:       item.Email,
		Phone:       item.Phone,
		Address:     item.Address,
		Website:     item.Website,
	}

	return card.ReconstructCard(id, item.ImageRef, ocr, fields, card.Status(item.Status), createdAt, updatedAt), nil
}
