package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type fakeJetStream struct {
	subjects []string
	payloads [][]byte
	msgIDs   int
	pending  int
	complete chan struct{}
	err      error
}

func (f *fakeJetStream) PublishAsync(subject string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	f.msgIDs += len(opts)
	return nil, nil
}

func (f *fakeJetStream) PublishAsyncPending() int {
	return f.pending
}

func (f *fakeJetStream) PublishAsyncComplete() <-chan struct{} {
	return f.complete
}

type idEvent struct {
	ID string `json:"id"`
}

func (e idEvent) MessageID() string { return e.ID }

func TestNATSPublisher_PublishEvent(t *testing.T) {
	js := &fakeJetStream{}
	p := &NATSPublisher{js: js, logger: logger.New("error")}

	if err := p.PublishEvent(context.Background(), "sla.report.published", idEvent{ID: "e-1"}); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}
	if err := p.PublishEvent(context.Background(), "sla.report.published", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	if len(js.subjects) != 2 || js.subjects[0] != "sla.report.published" {
		t.Fatalf("unexpected subjects %v", js.subjects)
	}
	if string(js.payloads[0]) != `{"id":"e-1"}` {
		t.Errorf("unexpected payload %s", js.payloads[0])
	}
	if js.msgIDs != 1 {
		t.Errorf("expected message id only for identified events, got %d options", js.msgIDs)
	}
}

func TestNATSPublisher_PublishError(t *testing.T) {
	p := &NATSPublisher{js: &fakeJetStream{err: errors.New("no responders")}, logger: logger.New("error")}

	if err := p.PublishEvent(context.Background(), "s", idEvent{}); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestNATSPublisher_Flush(t *testing.T) {
	complete := make(chan struct{})
	close(complete)
	p := &NATSPublisher{js: &fakeJetStream{pending: 2, complete: complete}, logger: logger.New("error")}

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	stuck := &NATSPublisher{js: &fakeJetStream{pending: 1, complete: make(chan struct{})}, logger: logger.New("error")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := stuck.Flush(ctx); err == nil {
		t.Fatal("expected flush timeout")
	}

	if err := (&NATSPublisher{js: &fakeJetStream{}, logger: logger.New("error")}).Flush(context.Background()); err != nil {
		t.Fatalf("Flush() with nothing pending error = %v", err)
	}
}
