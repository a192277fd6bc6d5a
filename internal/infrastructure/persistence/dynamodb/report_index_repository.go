package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

const (
	defaultListLimit = 25
	maxListLimit     = 100

	attrPK             = "PK"
	attrSK             = "SK"
	attrEnvironment    = "environment"
	attrServiceName    = "service_name"
	attrReportID       = "report_id"
	attrCurrentStatus  = "current_status"
	attrSummaryPath    = "summary_path"
	attrSuccessPercent = "success_percent"
	attrGeneratedOn    = "generated_on"
)

type queryPutAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type Config struct {
	TableName   string
	StrongReads bool
}

// ReportIndexRepository keeps one item per environment and service.
// PK = ENV#<environment>, SK = SERVICE#<service>, so a partition lists services alphabetically.
type ReportIndexRepository struct {
	client      queryPutAPI
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	Environment string                 `json:"environment"`
	Key         map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewReportIndexRepository(awsCfg aws.Config, cfg Config) (*ReportIndexRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	return newReportIndexRepository(dynamodb.NewFromConfig(awsCfg), cfg), nil
}

func newReportIndexRepository(client queryPutAPI, cfg Config) *ReportIndexRepository {
	return &ReportIndexRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}
}

func (r *ReportIndexRepository) Put(ctx context.Context, entry port.ReportIndexEntry) error {
	item, err := toItem(entry)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put item failed: %w", err)
	}

	return nil
}

func (r *ReportIndexRepository) ListByEnvironment(
	ctx context.Context,
	query port.ReportIndexQuery,
) (port.ReportIndexPage, error) {
	environment := strings.TrimSpace(query.Environment)
	if environment == "" {
		return port.ReportIndexPage{}, fmt.Errorf("environment is required")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		Limit:                  aws.Int32(int32(limit)),
		ConsistentRead:         aws.Bool(r.strongReads),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(environment)},
		},
	}

	if strings.TrimSpace(query.Cursor) != "" {
		exclusiveStartKey, err := decodeCursor(query.Cursor, environment)
		if err != nil {
			return port.ReportIndexPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.ReportIndexPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.ReportIndexEntry, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.ReportIndexPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, environment)
		if err != nil {
			return port.ReportIndexPage{}, err
		}
	}

	return port.ReportIndexPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func toItem(entry port.ReportIndexEntry) (map[string]types.AttributeValue, error) {
	environment := strings.TrimSpace(entry.Environment)
	serviceName := strings.TrimSpace(entry.ServiceName)
	if environment == "" {
		return nil, fmt.Errorf("environment is required")
	}
	if serviceName == "" {
		return nil, fmt.Errorf("service_name is required")
	}

	generatedOn := entry.GeneratedOn.UTC()
	if generatedOn.IsZero() {
		generatedOn = time.Now().UTC()
	}

	percents := make(map[string]types.AttributeValue, len(entry.SuccessPercent))
	for rangeSpec, percent := range entry.SuccessPercent {
		percents[rangeSpec] = &types.AttributeValueMemberN{Value: strconv.Itoa(percent)}
	}

	item := map[string]types.AttributeValue{
		attrPK:             &types.AttributeValueMemberS{Value: buildPK(environment)},
		attrSK:             &types.AttributeValueMemberS{Value: buildSK(serviceName)},
		attrEnvironment:    &types.AttributeValueMemberS{Value: environment},
		attrServiceName:    &types.AttributeValueMemberS{Value: serviceName},
		attrSuccessPercent: &types.AttributeValueMemberM{Value: percents},
		attrGeneratedOn:    &types.AttributeValueMemberN{Value: strconv.FormatInt(generatedOn.UnixMilli(), 10)},
	}

	if id := strings.TrimSpace(entry.ReportID); id != "" {
		item[attrReportID] = &types.AttributeValueMemberS{Value: id}
	}
	if status := strings.TrimSpace(entry.CurrentStatus); status != "" {
		item[attrCurrentStatus] = &types.AttributeValueMemberS{Value: status}
	}
	if summaryPath := strings.TrimSpace(entry.SummaryPath); summaryPath != "" {
		item[attrSummaryPath] = &types.AttributeValueMemberS{Value: summaryPath}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.ReportIndexEntry, error) {
	environment, err := attrString(item, attrEnvironment)
	if err != nil {
		return port.ReportIndexEntry{}, err
	}
	serviceName, err := attrString(item, attrServiceName)
	if err != nil {
		return port.ReportIndexEntry{}, err
	}
	generatedOnMS, err := attrInt64(item, attrGeneratedOn)
	if err != nil {
		return port.ReportIndexEntry{}, err
	}

	percents := map[string]int{}
	if raw, ok := item[attrSuccessPercent].(*types.AttributeValueMemberM); ok {
		for rangeSpec, value := range raw.Value {
			n, ok := value.(*types.AttributeValueMemberN)
			if !ok {
				return port.ReportIndexEntry{}, fmt.Errorf("invalid attribute %s.%s", attrSuccessPercent, rangeSpec)
			}
			percent, err := strconv.Atoi(n.Value)
			if err != nil {
				return port.ReportIndexEntry{}, fmt.Errorf("invalid attribute %s.%s: %w", attrSuccessPercent, rangeSpec, err)
			}
			percents[rangeSpec] = percent
		}
	}

	return port.ReportIndexEntry{
		Environment:    environment,
		ServiceName:    serviceName,
		ReportID:       optionalString(item, attrReportID),
		CurrentStatus:  optionalString(item, attrCurrentStatus),
		SummaryPath:    optionalString(item, attrSummaryPath),
		SuccessPercent: percents,
		GeneratedOn:    time.UnixMilli(generatedOnMS).UTC(),
	}, nil
}

func buildPK(environment string) string {
	return "ENV#" + environment
}

func buildSK(serviceName string) string {
	return "SERVICE#" + serviceName
}

func encodeCursor(key map[string]types.AttributeValue, environment string) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	serialized, err := json.Marshal(cursorPayload{
		Environment: environment,
		Key:         values,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(cursor, environment string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	if payload.Environment != environment {
		return nil, fmt.Errorf("cursor does not match query filters")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, fmt.Errorf("invalid cursor")
	}

	return key, nil
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}
