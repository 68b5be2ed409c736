package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pagewatch/internal/checks"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

// Recorder persists probe results and announces them on the live feed.
type Recorder struct {
	store  *storage.Storage
	broker *events.Broker
}

// NewRecorder creates a recorder. broker may be nil to disable the live feed.
func NewRecorder(store *storage.Storage, broker *events.Broker) *Recorder {
	return &Recorder{store: store, broker: broker}
}

// Record writes a PageCheck for page and refreshes the page cache in one
// transaction. The website id is copied from page. When the page no longer
// exists the error wraps storage.ErrNotFound and nothing is written.
func (r *Recorder) Record(ctx context.Context, page *storage.Page, result checks.Result) (*storage.PageCheck, error) {
	check := &storage.PageCheck{
		PageID:         page.ID,
		WebsiteID:      page.WebsiteID,
		Status:         result.Status,
		StatusCode:     result.StatusCode,
		ResponseTimeMs: result.ResponseTimeMs,
		CheckedAt:      time.Now().UTC(),
	}

	if err := r.store.RecordCheck(ctx, check); err != nil {
		return nil, err
	}

	r.publish(ctx, page, check)
	return check, nil
}

func (r *Recorder) publish(ctx context.Context, page *storage.Page, check *storage.PageCheck) {
	if r.broker == nil || !r.broker.HasSubscribers() {
		return
	}

	owner, err := r.store.WebsiteOwner(ctx, page.WebsiteID)
	if err != nil {
		log.Debug().Err(err).Uint("website_id", page.WebsiteID).Msg("Skipping live event")
		return
	}

	r.broker.Publish(events.CheckEvent{
		UserID:  owner,
		PageURL: page.URL,
		Check:   *check,
	})
}
