// Package fanout delivers each report event to several publishers.
package fanout

import (
	"context"
	"errors"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

// Publisher forwards every event to all targets; one failing target does not stop the others.
type Publisher struct {
	targets []port.EventPublisher
}

func NewPublisher(targets ...port.EventPublisher) *Publisher {
	active := make([]port.EventPublisher, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			active = append(active, t)
		}
	}
	return &Publisher{targets: active}
}

func (p *Publisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	var errs []error
	for _, t := range p.targets {
		if err := t.PublishEvent(ctx, subject, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) Close() error {
	var errs []error
	for _, t := range p.targets {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of targets.
func (p *Publisher) Len() int {
	return len(p.targets)
}
