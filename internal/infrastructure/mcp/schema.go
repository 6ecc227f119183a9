package mcp

import (
	"context"

	mcplib "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

// SchemaURI is the resource holding the review JSON Schema.
const SchemaURI = "prdreview://schema/review"

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(SchemaURI).
		Name(SchemaURI).
		Description("JSON Schema of a PRD review result").
		MimeType("application/schema+json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return &mcplib.ResourceContent{
				URI:      SchemaURI,
				MimeType: "application/schema+json",
				Text:     review.JSONSchema,
			}, nil
		})
}
