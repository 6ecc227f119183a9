// Package mcp exposes PRD reviews to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"go.uber.org/zap"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportWS    = "ws"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

type Server struct {
	mcpServer *mcp.Server
	services  *wiring.AppServices
	logger    *zap.Logger
}

// mcpErr returns a message safe to show an MCP client.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer registers the review tools against services.
func NewServer(services *wiring.AppServices) (*Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	info := mcp.ServerInfo{
		Name:    "prdreview",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("PRD Review MCP Server"),
			mcp.WithDescription("Scores product requirement documents against a rubric using the PRD review API."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Call prd_review with the PRD markdown. Use prd_health first if the API may be down. prd_last_result returns the most recent verdict."),
		),
		services: services,
		logger:   services.Logger.Named("mcp"),
	}

	s.registerTools()
	s.registerSchemaResource()
	return s, nil
}

type ReviewArgs struct {
	PRDMarkdown    string         `json:"prd_markdown" jsonschema:"description=The PRD text in markdown,required"`
	Audience       string         `json:"audience,omitempty" jsonschema:"description=Who the review is written for"`
	Mode           string         `json:"mode,omitempty" jsonschema:"description=auto (default) or mock"`
	ProductContext map[string]any `json:"product_context,omitempty" jsonschema:"description=Extra product facts passed to the reviewer"`
}

type ValidateArgs struct {
	Document string `json:"document" jsonschema:"description=A review JSON document to check,required"`
}

// ReviewOutcome is returned by prd_review.
type ReviewOutcome struct {
	Status       submission.Status      `json:"status"`
	SubmissionID string                 `json:"submission_id"`
	Result       *review.ReviewResponse `json:"result,omitempty"`
	Failure      *submission.Failure    `json:"failure,omitempty"`
}

type HealthOutcome struct {
	Online  bool   `json:"online"`
	APIBase string `json:"api_base"`
}

type LinksOutcome struct {
	Docs   string `json:"docs"`
	Schema string `json:"schema"`
}

type ValidateOutcome struct {
	Valid      bool                    `json:"valid"`
	Violations []review.FieldViolation `json:"violations"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("prd_review").
		Description("Submit a PRD for review and wait for the scored verdict").
		Handler(s.handleReview)

	s.mcpServer.Tool("prd_health").
		Description("Check whether the PRD review API is reachable").
		Handler(s.handleHealth)

	s.mcpServer.Tool("prd_last_result").
		Description("Return the most recent successful review").
		Handler(s.handleLastResult)

	s.mcpServer.Tool("prd_links").
		Description("Return the API documentation and schema URLs").
		Handler(s.handleLinks)

	s.mcpServer.Tool("prd_sample").
		Description("Return a sample PRD to try the reviewer with").
		Handler(s.handleSample)

	s.mcpServer.Tool("prd_validate").
		Description("Check a saved review JSON document against the review schema").
		Handler(s.handleValidate)
}

func (s *Server) handleReview(ctx context.Context, args ReviewArgs) (any, error) {
	req := review.ReviewRequest{
		PRDMarkdown:    args.PRDMarkdown,
		ProductContext: args.ProductContext,
		Audience:       args.Audience,
		Mode:           review.Mode(args.Mode),
	}

	snap, err := s.services.Session.SubmitAndWait(ctx, req)
	switch {
	case errors.Is(err, submission.ErrEmptyInput):
		return nil, mcpErr("The PRD is empty. Pass the document text in prd_markdown.")
	case errors.Is(err, submission.ErrInFlight):
		return nil, mcpErr("Another review is still running. Try again when it finishes.")
	case errors.Is(err, submission.ErrSuperseded):
		return nil, mcpErr("The review was reset before it finished.")
	case errors.Is(err, review.ErrEmptyPRD):
		return nil, mcpErr("The PRD is empty. Pass the document text in prd_markdown.")
	case err != nil:
		s.logger.Warn("prd_review failed", zap.Error(err))
		return nil, mcpErr("Review request was not accepted: " + err.Error())
	}

	return ReviewOutcome{
		Status:       snap.Status,
		SubmissionID: snap.SubmissionID,
		Result:       snap.Result,
		Failure:      snap.Failure,
	}, nil
}

func (s *Server) handleHealth(ctx context.Context, args struct{}) (any, error) {
	return HealthOutcome{
		Online:  s.services.Client.CheckHealth(ctx),
		APIBase: s.services.Client.BaseURL(),
	}, nil
}

func (s *Server) handleLastResult(ctx context.Context, args struct{}) (any, error) {
	snap := s.services.Session.Snapshot()
	if snap.Result == nil {
		return nil, mcpErr("No review result yet. Run prd_review first.")
	}
	out, err := presentation.Export(snap.Result)
	if err != nil {
		return nil, mcpErr("Failed to export the last review.")
	}
	return out, nil
}

func (s *Server) handleLinks(ctx context.Context, args struct{}) (any, error) {
	return LinksOutcome{
		Docs:   s.services.Client.DocsURL(),
		Schema: s.services.Client.SchemaURL(),
	}, nil
}

func (s *Server) handleSample(ctx context.Context, args struct{}) (string, error) {
	return review.Sample(), nil
}

func (s *Server) handleValidate(ctx context.Context, args ValidateArgs) (any, error) {
	violations, err := review.CheckDocument([]byte(args.Document))
	if err != nil {
		return nil, mcpErr("The document is not valid JSON.")
	}
	if violations == nil {
		violations = []review.FieldViolation{}
	}
	return ValidateOutcome{Valid: len(violations) == 0, Violations: violations}, nil
}

// Serve runs the server on transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("mcp server starting", zap.String("transport", transport), zap.String("addr", addr))
	switch transport {
	case "", TransportStdio:
		return mcp.ServeStdio(ctx, s.mcpServer)
	case TransportHTTP:
		return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
	case TransportWS:
		return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
	default:
		return fmt.Errorf("unsupported transport %q (use stdio, http or ws)", transport)
	}
}
