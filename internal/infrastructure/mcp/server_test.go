package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/mcp-go/schema"
	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/config"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/prdreview/pkg/client"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"go.uber.org/zap/zaptest"
)

type stubReviewer struct {
	res *review.ReviewResponse
	err error
}

func (s stubReviewer) SubmitReview(context.Context, review.ReviewRequest) (*review.ReviewResponse, error) {
	return s.res, s.err
}

func newTestServer(t *testing.T, reviewer submission.Reviewer) *Server {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(api.Close)

	cfg := config.Defaults()
	cfg.API.BaseURL = api.URL

	services, err := wiring.BuildAppServicesWithReviewer(context.Background(), &cfg, zaptest.NewLogger(t), reviewer)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	t.Cleanup(services.Close)

	srv, err := NewServer(services)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv
}

func verdict() *review.ReviewResponse {
	return &review.ReviewResponse{
		OverallScore: 72,
		Summary:      "ok",
		DecisionTrace: review.DecisionTrace{
			Confidence:    80,
			ScoringRubric: []review.RubricItem{{Criterion: "Clarity", Weight: 20, Score: 16, Notes: "ok"}},
		},
	}
}

func TestNewServerRequiresServices(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Fatal("expected error for nil services")
	}
}

func TestToolsRegistered(t *testing.T) {
	srv := newTestServer(t, stubReviewer{res: verdict()})

	names := map[string]bool{}
	for _, tool := range srv.mcpServer.Tools() {
		names[tool.Name] = true
	}
	for _, want := range []string{"prd_review", "prd_health", "prd_last_result", "prd_links", "prd_sample", "prd_validate"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestHandleReviewSuccessAndLastResult(t *testing.T) {
	srv := newTestServer(t, stubReviewer{res: verdict()})
	ctx := context.Background()

	if _, err := srv.handleLastResult(ctx, struct{}{}); err == nil {
		t.Fatal("expected error before any review")
	}

	out, err := srv.handleReview(ctx, ReviewArgs{PRDMarkdown: "# PRD", Mode: "mock"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	outcome := out.(ReviewOutcome)
	if outcome.Status != submission.StatusSuccess || outcome.Result.OverallScore != 72 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.SubmissionID == "" {
		t.Error("expected a submission id")
	}

	last, err := srv.handleLastResult(ctx, struct{}{})
	if err != nil {
		t.Fatalf("last result: %v", err)
	}
	decoded, err := review.Decode([]byte(last.(string)))
	if err != nil {
		t.Fatalf("last result is not a valid review: %v", err)
	}
	if decoded.OverallScore != 72 {
		t.Errorf("expected score 72, got %d", decoded.OverallScore)
	}
}

func TestHandleReviewFailureOutcome(t *testing.T) {
	srv := newTestServer(t, stubReviewer{err: &client.APIError{Kind: client.KindRejected, Status: 422, Message: "prd_markdown too short"}})

	out, err := srv.handleReview(context.Background(), ReviewArgs{PRDMarkdown: "x"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	outcome := out.(ReviewOutcome)
	if outcome.Status != submission.StatusFailure {
		t.Fatalf("expected failure, got %s", outcome.Status)
	}
	if outcome.Failure.Status != 422 || outcome.Failure.Message != "prd_markdown too short" {
		t.Errorf("unexpected failure: %+v", outcome.Failure)
	}
}

func TestHandleReviewRejectsInput(t *testing.T) {
	srv := newTestServer(t, stubReviewer{res: verdict()})

	if _, err := srv.handleReview(context.Background(), ReviewArgs{PRDMarkdown: "  "}); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty error, got %v", err)
	}
	if _, err := srv.handleReview(context.Background(), ReviewArgs{PRDMarkdown: "x", Mode: "fast"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestHandleHealthAndLinks(t *testing.T) {
	srv := newTestServer(t, stubReviewer{})
	ctx := context.Background()

	out, _ := srv.handleHealth(ctx, struct{}{})
	health := out.(HealthOutcome)
	if !health.Online {
		t.Error("expected API online")
	}

	out, _ = srv.handleLinks(ctx, struct{}{})
	links := out.(LinksOutcome)
	if !strings.HasSuffix(links.Docs, "/docs") || !strings.HasSuffix(links.Schema, "/schema") {
		t.Errorf("unexpected links: %+v", links)
	}
}

func TestHandleSampleAndValidate(t *testing.T) {
	srv := newTestServer(t, stubReviewer{})
	ctx := context.Background()

	sample, _ := srv.handleSample(ctx, struct{}{})
	if !strings.Contains(sample, "#") {
		t.Error("expected markdown sample")
	}

	exported, err := review.Export(verdict())
	if err != nil {
		t.Fatal(err)
	}
	out, err := srv.handleValidate(ctx, ValidateArgs{Document: string(exported)})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := out.(ValidateOutcome); !got.Valid || len(got.Violations) != 0 {
		t.Errorf("expected valid document, got %+v", got)
	}

	out, err = srv.handleValidate(ctx, ValidateArgs{Document: `{"overall_score": 140}`})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := out.(ValidateOutcome); got.Valid || len(got.Violations) == 0 {
		t.Errorf("expected violations, got %+v", got)
	}

	if _, err := srv.handleValidate(ctx, ValidateArgs{Document: "{"}); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestOpenAPI(t *testing.T) {
	srv := newTestServer(t, stubReviewer{})

	data, err := srv.OpenAPI()
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	var doc OpenAPISpec
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Info.Title != "PRD Review MCP API" {
		t.Errorf("unexpected title %q", doc.Info.Title)
	}
	reviewPath, ok := doc.Paths["/tools/prd_review"]
	if !ok || reviewPath.Post == nil {
		t.Fatalf("missing prd_review path: %v", doc.Paths)
	}
	if reviewPath.Post.RequestBody == nil {
		t.Fatal("prd_review should take a request body")
	}
	body, _ := reviewPath.Post.RequestBody.Content["application/json"].Schema.(map[string]any)
	props, _ := body["properties"].(map[string]any)
	if _, ok := props["prd_markdown"]; !ok {
		t.Errorf("prd_review body schema should describe prd_markdown, got %v", body)
	}
	if v := doc.Paths["/tools/prd_validate"]; v.Post == nil || v.Post.RequestBody == nil {
		t.Error("prd_validate should take a request body")
	}
	if health := doc.Paths["/tools/prd_health"]; health.Post == nil || health.Post.RequestBody != nil {
		t.Error("prd_health should have no request body")
	}
}

func TestHasProperties(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"typed schema with fields", &schema.Schema{Properties: map[string]*schema.Schema{"document": {Type: "string"}}}, true},
		{"typed schema without fields", &schema.Schema{Properties: map[string]*schema.Schema{}}, false},
		{"nil typed schema", (*schema.Schema)(nil), false},
		{"map schema", map[string]any{"properties": map[string]any{"a": map[string]any{}}}, true},
		{"empty map schema", map[string]any{"type": "object"}, false},
		{"unknown", "object", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasProperties(tt.in); got != tt.want {
				t.Fatalf("hasProperties = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	srv := newTestServer(t, stubReviewer{})
	if err := srv.Serve(context.Background(), "carrier-pigeon", ""); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestServeHTTPReturnsCanceled(t *testing.T) {
	srv := newTestServer(t, stubReviewer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Serve(ctx, TransportHTTP, "127.0.0.1:0"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
