// Package command holds the write side: every operation that changes state in
// the hosted backend or starts a payment flow.
package command

import (
	"context"
	"errors"
	"strings"

	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/shared/events"
)

var (
	ErrMissingRequired   = errors.New("missing required fields")
	ErrDuplicateVisa     = errors.New("visa number already exists")
	ErrDuplicatePassport = errors.New("passport number already exists")
	ErrFileTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrUnknownPreference = errors.New("unknown notification preference")
	ErrNotFound          = errors.New("not found")
)

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// publish records a domain event. Failures are logged and never returned.
func publish(ctx context.Context, p EventPublisher, eventType string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, events.RecordEventsStream, eventType, data); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event", eventType).Warn("failed to publish event")
	}
}

func logFailure(ctx context.Context, operation string, err error) {
	logging.FromContext(ctx).WithError(err).WithField("operation", operation).Error("operation failed")
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
