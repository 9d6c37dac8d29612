package engine

import (
	"context"

	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
	"github.com/louisbranch/verifier.space/internal/storage/cursor"
)

const (
	// DefaultEventPageSize applies when the caller does not choose one.
	DefaultEventPageSize = 50
	// MaxEventPageSize caps a single page.
	MaxEventPageSize = 200

	eventsCursorFilter = "events"
)

// EventPage is one page of the audit trail.
type EventPage struct {
	Events        []storage.Event
	NextPageToken string
}

// Events pages forward through the audit trail in sequence order.
func (e *Engine) Events(ctx context.Context, pageToken string, pageSize int) (EventPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultEventPageSize
	}
	if pageSize > MaxEventPageSize {
		pageSize = MaxEventPageSize
	}
	afterSeq, err := cursor.Resume(pageToken, eventsCursorFilter)
	if err != nil {
		return EventPage{}, invalidArgument("invalid page token")
	}

	var page EventPage
	err = e.view(ctx, "Events", func(ctx context.Context, tx storage.Tx) error {
		events, err := tx.ListEvents(ctx, afterSeq, pageSize+1)
		if err != nil {
			return err
		}
		if len(events) > pageSize {
			events = events[:pageSize]
			token, err := cursor.Encode(cursor.New(events[len(events)-1].Seq, eventsCursorFilter))
			if err != nil {
				return err
			}
			page.NextPageToken = token
		}
		page.Events = events
		return nil
	})
	if err != nil {
		return EventPage{}, err
	}
	return page, nil
}
