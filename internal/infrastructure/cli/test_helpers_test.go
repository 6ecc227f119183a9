package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const reviewPayload = `{
  "overall_score": 72,
  "summary": "Solid problem statement, thin on measurement.",
  "strengths": ["Clear target user"],
  "gaps": [{"area": "Metrics", "why": "No baseline", "suggested_fix": "Add a baseline"}],
  "risks": [],
  "questions": ["Who owns rollout?"],
  "metrics": [],
  "suggested_experiments": [],
  "decision_trace": {
    "confidence": 80,
    "scoring_rubric": [{"criterion": "Clarity", "weight": 20, "score": 16, "notes": "ok"}],
    "assumptions": []
  }
}`

func withTempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "prdreview-cli-test-*")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	return dir, func() {
		_ = os.Chdir(old)
		_ = os.RemoveAll(dir)
	}
}

// resetFlags puts every flag back to its default so package-level flag
// variables do not leak between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringToString" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIWithStderr(t, stdin, args...)
	return out, err
}

// runCLIWithStderr is runCLI that also returns what the command wrote to stderr.
func runCLIWithStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("PRDREVIEW_LOG_LEVEL", "error")
	resetFlags(RootCmd)
	reviewContext = map[string]string{}
	t.Cleanup(func() {
		resetFlags(RootCmd)
		reviewContext = map[string]string{}
	})

	var out, errOut bytes.Buffer
	RootCmd.SetArgs(args)
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SilenceErrors = true
	defer func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
	}()

	err := RootCmd.Execute()
	return out.String(), errOut.String(), err
}

// fakeAPI is a review server that records the requests it receives.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []map[string]any
	healthy  bool
	status   int
	body     string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{healthy: true, status: http.StatusOK, body: reviewPayload}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		if !api.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/review", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		api.mu.Lock()
		api.requests = append(api.requests, body)
		status, payload := api.status, api.body
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	})
	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) respond(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status, a.body = status, body
}

func (a *fakeAPI) setHealthy(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.healthy = ok
}

func (a *fakeAPI) received() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.requests...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
