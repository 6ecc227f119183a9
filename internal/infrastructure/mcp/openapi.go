package mcp

import (
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/schema"
)

// OpenAPISpec is the subset of OpenAPI 3.0 needed to describe the tools.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi"`
	Info    OpenAPIInfo         `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// OpenAPIInfo is the info section of an OpenAPI spec.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathItem represents a single path with operations.
type PathItem struct {
	Post *Operation `json:"post,omitempty"`
}

// Operation is an OpenAPI operation.
type Operation struct {
	OperationID string              `json:"operationId"`
	Summary     string              `json:"summary,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
	Tags        []string            `json:"tags,omitempty"`
}

// RequestBody is the request body definition.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// MediaType describes a media type with schema.
type MediaType struct {
	Schema any `json:"schema"`
}

// Response is an OpenAPI response.
type Response struct {
	Description string `json:"description"`
}

// OpenAPI describes the registered tools, one POST /tools/{name} each.
func (s *Server) OpenAPI() ([]byte, error) {
	return GenerateOpenAPI(s.mcpServer, "PRD Review MCP API", Version)
}

// GenerateOpenAPI builds the document for every tool registered on srv.
func GenerateOpenAPI(srv *mcplib.Server, title, version string) ([]byte, error) {
	tools := srv.Tools()

	paths := make(map[string]PathItem, len(tools))
	for _, t := range tools {
		op := Operation{
			OperationID: t.Name,
			Summary:     t.Description,
			Responses: map[string]Response{
				"200": {Description: "Tool result"},
				"400": {Description: "Invalid arguments"},
			},
			Tags: []string{"prdreview"},
		}

		if hasProperties(t.InputSchema) {
			op.RequestBody = &RequestBody{
				Required: true,
				Content:  map[string]MediaType{"application/json": {Schema: t.InputSchema}},
			}
		}
		paths["/tools/"+t.Name] = PathItem{Post: &op}
	}

	doc := OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       title,
			Description: "Generated from the MCP tool registrations.",
			Version:     version,
		},
		Paths: paths,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// hasProperties reports whether a tool input schema declares any argument.
// Tools register *schema.Schema; plain maps come from hand-written schemas.
func hasProperties(in any) bool {
	switch s := in.(type) {
	case *schema.Schema:
		return s != nil && len(s.Properties) > 0
	case map[string]any:
		props, ok := s["properties"].(map[string]any)
		return ok && len(props) > 0
	}
	return false
}
