// Package submission owns the lifecycle of a single PRD review request.
package submission

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/prdreview/pkg/client"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reviewer submits a review request. *client.Client implements it.
type Reviewer interface {
	SubmitReview(ctx context.Context, req review.ReviewRequest) (*review.ReviewResponse, error)
}

// Snapshot is an immutable view of the session. Result and Failure are
// shared with other snapshots and must not be modified.
type Snapshot struct {
	Status       Status                 `json:"status"`
	Analyzing    bool                   `json:"analyzing"`
	Generation   uint64                 `json:"generation"`
	SubmissionID string                 `json:"submission_id,omitempty"`
	Result       *review.ReviewResponse `json:"result,omitempty"`
	Failure      *Failure               `json:"failure,omitempty"`
	SubmittedAt  time.Time              `json:"submitted_at"`
	CompletedAt  time.Time              `json:"completed_at"`
}

// Elapsed is how long the submission took, or has taken so far.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.SubmittedAt.IsZero() {
		return 0
	}
	if s.CompletedAt.IsZero() {
		return now.Sub(s.SubmittedAt)
	}
	return s.CompletedAt.Sub(s.SubmittedAt)
}

// Session is a single submission slot. At most one request is in flight;
// every submission is tagged with a generation and a resolution is applied
// only while its generation is still current.
type Session struct {
	reviewer Reviewer
	logger   *zap.Logger
	now      func() time.Time
	ctx      context.Context

	mu         sync.Mutex
	machine    *Machine
	generation uint64
	snap       Snapshot
	draft      string

	subMu     sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int

	qMu   sync.Mutex
	queue []Snapshot
	wake  chan struct{}
	done  chan struct{}
	idle  chan struct{}

	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithContext sets the parent context of every request. Cancelling it
// fails in-flight requests as unreachable.
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.ctx = ctx }
}

// NewSession creates an idle session backed by reviewer.
func NewSession(reviewer Reviewer, opts ...Option) (*Session, error) {
	s := &Session{
		reviewer:  reviewer,
		logger:    zap.NewNop(),
		now:       time.Now,
		ctx:       context.Background(),
		listeners: make(map[int]func(Snapshot)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		idle:      make(chan struct{}),
	}
	for _, fn := range opts {
		fn(s)
	}

	machine, err := NewMachine(func(event string) bool {
		return event != EventSubmit || !review.NewRequest(s.draft).IsBlank()
	})
	if err != nil {
		return nil, err
	}
	s.machine = machine
	s.snap = Snapshot{Status: machine.Current()}

	go s.dispatch()
	return s, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Submit starts a review of req and returns the pending snapshot. It
// returns ErrEmptyInput for blank text and ErrInFlight while another review
// is pending; in both cases the state is unchanged and nothing is sent.
// The outcome is delivered to subscribers.
func (s *Session) Submit(req review.ReviewRequest) (Snapshot, error) {
	if req.IsBlank() {
		return s.Snapshot(), ErrEmptyInput
	}
	if err := req.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Status == StatusPending {
		return s.snap, ErrInFlight
	}

	s.draft = req.PRDMarkdown
	err := s.machine.Transition(EventSubmit)
	s.draft = ""
	if err != nil {
		return s.snap, err
	}

	s.generation++
	gen := s.generation
	id := uuid.NewString()
	s.commit(Snapshot{
		Status:       StatusPending,
		Generation:   gen,
		SubmissionID: id,
		SubmittedAt:  s.now(),
	})

	s.logger.Info("review submitted",
		zap.String("submission_id", id),
		zap.Uint64("generation", gen),
		zap.Int("prd_chars", len(req.PRDMarkdown)),
		zap.String("mode", string(req.Mode)))

	s.inflight.Add(1)
	go s.run(gen, id, req)

	return s.snap, nil
}

func (s *Session) run(gen uint64, id string, req review.ReviewRequest) {
	defer s.inflight.Done()
	ctx := client.WithRequestID(s.ctx, id)
	res, err := s.reviewer.SubmitReview(ctx, req)
	s.settle(gen, res, err)
}

func (s *Session) settle(gen uint64, res *review.ReviewResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.snap.Status != StatusPending {
		s.logger.Debug("discarding stale review resolution",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", s.generation))
		return
	}

	log := s.logger.With(zap.String("submission_id", s.snap.SubmissionID), zap.Uint64("generation", gen))

	next := s.snap
	next.CompletedAt = s.now()

	if err == nil && res == nil {
		err = &client.APIError{Kind: client.KindMalformed, Message: "Server returned an empty review"}
	}

	if err != nil {
		if terr := s.machine.Transition(EventReject); terr != nil {
			log.Error("reject transition refused", zap.Error(terr))
			return
		}
		failure := FailureFrom(err)
		next.Status = StatusFailure
		next.Failure = &failure
		log.Warn("review failed",
			zap.String("kind", string(failure.Kind)),
			zap.Int("status", failure.Status),
			zap.String("message", failure.Message))
	} else {
		if terr := s.machine.Transition(EventResolve); terr != nil {
			log.Error("resolve transition refused", zap.Error(terr))
			return
		}
		next.Status = StatusSuccess
		next.Result = res
		log.Info("review completed",
			zap.Int("overall_score", res.OverallScore),
			zap.Duration("elapsed", next.Elapsed(next.CompletedAt)))
	}

	s.commit(next)
}

// Reset returns the session to idle and discards any held result or
// failure. A request still in flight runs to completion but its outcome is
// ignored.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Status == StatusIdle {
		return s.snap
	}
	if err := s.machine.Transition(EventReset); err != nil {
		s.logger.Error("reset transition refused", zap.Error(err))
		return s.snap
	}

	s.generation++
	s.commit(Snapshot{Status: StatusIdle, Generation: s.generation})
	s.logger.Debug("session reset", zap.Uint64("generation", s.generation))
	return s.snap
}

// commit replaces the snapshot and queues it for subscribers. Callers hold mu,
// which keeps notifications in transition order.
func (s *Session) commit(next Snapshot) {
	next.Analyzing = next.Status == StatusPending
	s.snap = next

	s.qMu.Lock()
	s.queue = append(s.queue, next)
	s.qMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers fn for every applied transition. fn runs on the
// session's notification goroutine, one snapshot at a time and in order.
// The returned function unsubscribes.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

func (s *Session) dispatch() {
	defer close(s.idle)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *Session) drain() {
	for {
		s.qMu.Lock()
		if len(s.queue) == 0 {
			s.qMu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.qMu.Unlock()

		for _, snap := range batch {
			s.subMu.Lock()
			fns := make([]func(Snapshot), 0, len(s.listeners))
			for _, fn := range s.listeners {
				fns = append(fns, fn)
			}
			s.subMu.Unlock()

			for _, fn := range fns {
				fn(snap)
			}
		}
	}
}

// SubmitAndWait submits req and blocks until that submission settles, the
// session is reset, or ctx is done.
func (s *Session) SubmitAndWait(ctx context.Context, req review.ReviewRequest) (Snapshot, error) {
	updates := make(chan Snapshot, 4)
	stop := make(chan struct{})
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		select {
		case updates <- snap:
		case <-stop:
		}
	})
	defer func() {
		close(stop)
		unsubscribe()
	}()

	pending, err := s.Submit(req)
	if err != nil {
		return pending, err
	}

	for {
		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case snap := <-updates:
			if snap.Generation < pending.Generation {
				continue
			}
			if snap.Generation > pending.Generation {
				return snap, ErrSuperseded
			}
			if snap.Status.IsTerminal() {
				return snap, nil
			}
		}
	}
}

// Close waits for in-flight requests and stops notifications.
func (s *Session) Close() {
	s.inflight.Wait()
	s.closeOnce.Do(func() { close(s.done) })
	<-s.idle
}
