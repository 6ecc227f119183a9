package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/client"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gate holds every review until release is closed.
type gate struct {
	release chan struct{}
	res     *review.ReviewResponse
	err     error
}

func (g *gate) SubmitReview(ctx context.Context, req review.ReviewRequest) (*review.ReviewResponse, error) {
	<-g.release
	return g.res, g.err
}

type fakeAPI struct{ online bool }

func (f fakeAPI) CheckHealth(context.Context) bool { return f.online }
func (fakeAPI) BaseURL() string                    { return "http://127.0.0.1:8000" }
func (fakeAPI) DocsURL() string                    { return "http://127.0.0.1:8000/docs" }
func (fakeAPI) SchemaURL() string                  { return "http://127.0.0.1:8000/schema" }

func fixture() *review.ReviewResponse {
	return &review.ReviewResponse{
		OverallScore: 72,
		Summary:      "ok",
		DecisionTrace: review.DecisionTrace{
			Confidence:    80,
			ScoringRubric: []review.RubricItem{{Criterion: "Clarity", Weight: 20, Score: 16}},
		},
	}
}

type harness struct {
	gate    *gate
	session *submission.Session
	server  *Server
	http    *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	g := &gate{release: make(chan struct{}), res: fixture()}
	session, err := submission.NewSession(g, submission.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	srv := NewServer("127.0.0.1:0", session, fakeAPI{online: true}, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		select {
		case <-g.release:
		default:
			close(g.release)
		}
		_ = srv.Shutdown(context.Background())
		session.Close()
	})
	return &harness{gate: g, session: session, server: srv, http: ts}
}

func (h *harness) post(t *testing.T, path, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(h.http.URL+path, contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func waitStatus(t *testing.T, s *submission.Session, want submission.Status) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Snapshot().Status == want }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_ReviewLifecycle(t *testing.T) {
	h := newHarness(t)

	state := decode[submission.Snapshot](t, h.get(t, "/api/state"))
	assert.Equal(t, submission.StatusIdle, state.Status)

	resp := h.post(t, "/api/review", "application/json", `{"prd_markdown":"# PRD","mode":"mock"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	pending := decode[submission.Snapshot](t, resp)
	assert.Equal(t, submission.StatusPending, pending.Status)
	assert.True(t, pending.Analyzing)

	resp = h.post(t, "/api/review", "text/markdown", "# Another")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.get(t, "/api/export")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	close(h.gate.release)
	waitStatus(t, h.session, submission.StatusSuccess)

	resp = h.get(t, "/api/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "prd-review.json")
	exported, err := review.Decode(mustRead(t, resp))
	require.NoError(t, err)
	assert.Equal(t, 72, exported.OverallScore)

	resp = h.post(t, "/api/reset", "application/json", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, submission.StatusIdle, decode[submission.Snapshot](t, resp).Status)
}

func TestServer_ReviewBadRequests(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"blank markdown", "text/markdown", "   "},
		{"blank json", "application/json", `{"prd_markdown":""}`},
		{"invalid json", "application/json", `{`},
		{"bad mode", "application/json", `{"prd_markdown":"x","mode":"fast"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.post(t, "/api/review", tt.contentType, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
	assert.Equal(t, submission.StatusIdle, h.session.Snapshot().Status)
}

func TestServer_HealthAndLinks(t *testing.T) {
	h := newHarness(t)

	health := decode[healthBody](t, h.get(t, "/api/health"))
	assert.True(t, health.Online)
	assert.Equal(t, "http://127.0.0.1:8000", health.APIBase)

	links := decode[linksBody](t, h.get(t, "/api/links"))
	assert.Equal(t, "http://127.0.0.1:8000/docs", links.Docs)
	assert.Equal(t, "http://127.0.0.1:8000/schema", links.Schema)
}

func TestServer_FailureSnapshot(t *testing.T) {
	h := newHarness(t)
	h.gate.res = nil
	h.gate.err = &client.APIError{Kind: client.KindRejected, Status: 422, Message: "prd_markdown too short"}

	h.post(t, "/api/review", "text/plain", "# PRD")
	close(h.gate.release)
	waitStatus(t, h.session, submission.StatusFailure)

	state := decode[submission.Snapshot](t, h.get(t, "/api/state"))
	require.NotNil(t, state.Failure)
	assert.Equal(t, 422, state.Failure.Status)
	assert.Equal(t, "prd_markdown too short", state.Failure.Message)
}

func TestSSE_StreamsSnapshots(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.http.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	assert.Equal(t, "idle", <-events)

	h.post(t, "/api/review", "text/markdown", "# PRD")
	assert.Equal(t, "pending", <-events)
	close(h.gate.release)
	assert.Equal(t, "success", <-events)
}

func TestSSE_StatusFilter(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.http.URL+"/events?status=success,failure", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	h.post(t, "/api/review", "text/markdown", "# PRD")
	close(h.gate.release)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			assert.Equal(t, "event: success", line)
			return
		}
	}
	t.Fatal("stream ended without an event")
}

func TestWS_StreamsAndAcceptsCommands(t *testing.T) {
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	read := func() (wsMessage, submission.Snapshot) {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		var snap submission.Snapshot
		if msg.Type == "snapshot" {
			require.NoError(t, json.Unmarshal(msg.Snapshot, &snap))
		}
		return msg, snap
	}

	_, snap := read()
	assert.Equal(t, submission.StatusIdle, snap.Status)

	require.NoError(t, conn.WriteJSON(Command{Action: "submit", Request: review.NewRequest("# PRD")}))
	_, snap = read()
	assert.Equal(t, submission.StatusPending, snap.Status)

	require.NoError(t, conn.WriteJSON(Command{Action: "submit", Request: review.NewRequest("# PRD")}))
	msg, _ := read()
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "already in progress")

	require.NoError(t, conn.WriteJSON(Command{Action: "dance"}))
	msg, _ = read()
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, conn.WriteJSON(Command{Action: "reset"}))
	_, snap = read()
	assert.Equal(t, submission.StatusIdle, snap.Status)
}

func TestHub_LastAndClients(t *testing.T) {
	hub := NewHub(nil)
	_, ok := hub.Last()
	assert.False(t, ok)

	ch, last := hub.subscribe()
	assert.Nil(t, last)
	assert.Equal(t, 1, hub.Clients())

	hub.Publish(submission.Snapshot{Status: submission.StatusPending, Generation: 1})
	ev := <-ch
	assert.Equal(t, uint64(1), ev.ID)
	assert.Equal(t, submission.StatusPending, ev.Status)

	got, ok := hub.Last()
	require.True(t, ok)
	assert.Equal(t, ev.ID, got.ID)

	hub.unsubscribe(ch)
	assert.Equal(t, 0, hub.Clients())
}

func mustRead(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}
