package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"pagewatch/internal/storage"
)

// enqueueAllPages streams every page in batches and queues one check per page.
// It blocks while the queue is full.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: storage failure, or the queue closing mid-cycle
func (e *Engine) enqueueAllPages(ctx context.Context) error {
	queued := 0
	err := e.storage.EachPage(ctx, e.config.BatchSize, func(page storage.Page) error {
		if err := e.queue.SubmitWait(ctx, page.ID); err != nil {
			return err
		}
		queued++
		return nil
	})
	if err != nil {
		return fmt.Errorf("check cycle stopped after %d pages: %w", queued, err)
	}

	log.Info().Int("pages", queued).Msg("Check cycle enqueued")
	return nil
}

// runCheckTask loads the page, probes it and records the result.
//
// A page deleted before or during the check is skipped silently. Other
// failures are logged and the task is dropped; there are no retries.
//
// Parameters:
//   - ctx: Context for cancellation
//   - pageID: ID of the page to check
func (e *Engine) runCheckTask(ctx context.Context, pageID uint) {
	page, err := e.storage.GetPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug().Uint("page_id", pageID).Msg("Page no longer exists, skipping check")
			return
		}
		log.Error().Uint("page_id", pageID).Err(err).Msg("Failed to load page")
		return
	}

	result := e.checker.Check(ctx, page.URL)

	check, err := e.recorder.Record(ctx, page, result)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug().Uint("page_id", pageID).Msg("Page deleted during check, result discarded")
			return
		}
		log.Error().
			Uint("page_id", pageID).
			Uint("website_id", page.WebsiteID).
			Err(err).
			Msg("Failed to record check result")
		return
	}

	event := log.Debug().
		Uint("page_id", pageID).
		Uint("website_id", page.WebsiteID).
		Str("status", check.Status)
	if check.StatusCode != nil {
		event = event.Int("status_code", *check.StatusCode).Int("response_time_ms", *check.ResponseTimeMs)
	}
	if result.Err != nil {
		event = event.AnErr("transport_error", result.Err)
	}
	event.Msg("Page checked")
}
