package watch

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"go.uber.org/zap"
)

// Submitter is the part of submission.Session the resubmitter needs.
type Submitter interface {
	Submit(req review.ReviewRequest) (submission.Snapshot, error)
}

// Outcome says what happened to one change event.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeInFlight  Outcome = "skipped_in_flight"
	OutcomeUnchanged Outcome = "skipped_unchanged"
	OutcomeEmpty     Outcome = "skipped_empty"
	OutcomeError     Outcome = "error"
)

// Resubmitter reads the watched file on every change and submits it. A
// change that arrives while a review is pending is skipped, as is content
// identical to the last submission.
type Resubmitter struct {
	submitter Submitter
	build     func(markdown string) review.ReviewRequest
	logger    *zap.Logger

	mu   sync.Mutex
	last string
}

// NewResubmitter creates a resubmitter. build turns file content into a
// request; nil uses review.NewRequest.
func NewResubmitter(s Submitter, build func(string) review.ReviewRequest, logger *zap.Logger) *Resubmitter {
	if build == nil {
		build = review.NewRequest
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resubmitter{submitter: s, build: build, logger: logger}
}

// Submit reads path and submits its content.
func (r *Resubmitter) Submit(path string) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("cannot read watched file", zap.String("path", path), zap.Error(err))
		return OutcomeError, fmt.Errorf("read %s: %w", path, err)
	}
	markdown := string(data)

	r.mu.Lock()
	defer r.mu.Unlock()

	if markdown == r.last {
		r.logger.Debug("content unchanged, not resubmitting", zap.String("path", path))
		return OutcomeUnchanged, nil
	}

	snap, err := r.submitter.Submit(r.build(markdown))
	switch {
	case errors.Is(err, submission.ErrInFlight):
		r.logger.Info("review in flight, change skipped", zap.String("path", path))
		return OutcomeInFlight, nil
	case errors.Is(err, submission.ErrEmptyInput):
		r.logger.Info("file is blank, nothing to review", zap.String("path", path))
		return OutcomeEmpty, nil
	case err != nil:
		r.logger.Warn("resubmit failed", zap.String("path", path), zap.Error(err))
		return OutcomeError, err
	}

	r.last = markdown
	r.logger.Info("change submitted for review",
		zap.String("path", path),
		zap.String("submission_id", snap.SubmissionID))
	return OutcomeSubmitted, nil
}

// OnChange adapts Submit to FileWatcher's callback.
func (r *Resubmitter) OnChange(ev ChangeEvent) {
	_, _ = r.Submit(ev.Path)
}
