package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

type fakeSubmitter struct {
	err  error
	reqs []review.ReviewRequest
}

func (f *fakeSubmitter) Submit(req review.ReviewRequest) (submission.Snapshot, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return submission.Snapshot{}, f.err
	}
	return submission.Snapshot{Status: submission.StatusPending, SubmissionID: "sub-1"}, nil
}

func writePRD(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prd.md")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResubmitter_SubmitsAndSkipsUnchanged(t *testing.T) {
	path := writePRD(t, "# PRD")
	fake := &fakeSubmitter{}
	r := NewResubmitter(fake, func(md string) review.ReviewRequest {
		req := review.NewRequest(md)
		req.Audience = "exec"
		return req
	}, nil)

	got, err := r.Submit(path)
	if err != nil || got != OutcomeSubmitted {
		t.Fatalf("expected submitted, got %s (%v)", got, err)
	}
	if len(fake.reqs) != 1 || fake.reqs[0].PRDMarkdown != "# PRD" || fake.reqs[0].Audience != "exec" {
		t.Fatalf("unexpected requests: %+v", fake.reqs)
	}

	got, _ = r.Submit(path)
	if got != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", got)
	}
	if len(fake.reqs) != 1 {
		t.Fatalf("expected no second submission, got %d", len(fake.reqs))
	}
}

func TestResubmitter_SkipsWhilePending(t *testing.T) {
	path := writePRD(t, "# PRD")
	fake := &fakeSubmitter{err: submission.ErrInFlight}
	r := NewResubmitter(fake, nil, nil)

	got, err := r.Submit(path)
	if err != nil || got != OutcomeInFlight {
		t.Fatalf("expected in-flight skip, got %s (%v)", got, err)
	}

	// the skipped content is retried on the next change
	fake.err = nil
	got, _ = r.Submit(path)
	if got != OutcomeSubmitted {
		t.Fatalf("expected submitted after pending cleared, got %s", got)
	}
}

func TestResubmitter_Blank(t *testing.T) {
	path := writePRD(t, "   \n")
	r := NewResubmitter(&fakeSubmitter{err: submission.ErrEmptyInput}, nil, nil)

	got, err := r.Submit(path)
	if err != nil || got != OutcomeEmpty {
		t.Fatalf("expected empty skip, got %s (%v)", got, err)
	}
}

func TestResubmitter_MissingFile(t *testing.T) {
	r := NewResubmitter(&fakeSubmitter{}, nil, nil)
	got, err := r.Submit(filepath.Join(t.TempDir(), "gone.md"))
	if err == nil || got != OutcomeError {
		t.Fatalf("expected read error, got %s (%v)", got, err)
	}
}
