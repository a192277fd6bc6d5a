package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
)

const (
	snsNotificationType = "Notification"
	sampleTopicARN      = "arn:aws:sns:us-east-1:000000000000:sla-monitor-results"
	sampleQueueARN      = "arn:aws:sqs:us-east-1:000000000000:sla-monitor-report"
)

// snsEnvelope is the body SQS delivers for an SNS subscription without raw delivery.
type snsEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp"`
}

// DecodeBody extracts a test result event from an SQS message body.
// The body is either an SNS notification with the event in Message, or the event itself.
func DecodeBody(body string) (entity.TestResultEvent, error) {
	payload := []byte(body)

	var envelope snsEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Message != "" {
		payload = []byte(envelope.Message)
	}

	var event entity.TestResultEvent
	decoder := json.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(&event); err != nil {
		return entity.TestResultEvent{}, fmt.Errorf("%w: %w", errs.ErrMalformedEvent, err)
	}

	return event, nil
}

// ToBatchItems converts SQS records into use case input, keeping decode failures per record.
func ToBatchItems(records []events.SQSMessage) []usecase.BatchItem {
	items := make([]usecase.BatchItem, 0, len(records))
	for _, record := range records {
		event, err := DecodeBody(record.Body)
		items = append(items, usecase.BatchItem{
			MessageID: record.MessageId,
			Event:     event,
			DecodeErr: err,
		})
	}
	return items
}

// NewSampleEvent builds an SQS event carrying one SNS-wrapped test result, as the queue delivers it.
func NewSampleEvent(service string, succeeded bool, executionSecs float64, now time.Time) (events.SQSEvent, error) {
	result := entity.TestResultEvent{
		Timestamp:         now.Unix(),
		Succeeded:         &succeeded,
		Service:           service,
		Groups:            []string{"sla"},
		TestExecutionSecs: executionSecs,
	}
	message, err := json.Marshal(result)
	if err != nil {
		return events.SQSEvent{}, fmt.Errorf("failed to marshal test result: %w", err)
	}

	body, err := json.Marshal(snsEnvelope{
		Type:      snsNotificationType,
		MessageID: uuid.New().String(),
		TopicArn:  sampleTopicARN,
		Message:   string(message),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return events.SQSEvent{}, fmt.Errorf("failed to marshal sns envelope: %w", err)
	}

	return events.SQSEvent{
		Records: []events.SQSMessage{
			{
				MessageId:      uuid.New().String(),
				ReceiptHandle:  "local-" + uuid.New().String(),
				Body:           string(body),
				EventSource:    "aws:sqs",
				EventSourceARN: sampleQueueARN,
				AWSRegion:      "us-east-1",
			},
		},
	}, nil
}
