package api

import (
	"github.com/hazyhaar/hsregistry/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer returns an MCP server carrying every registry tool.
func NewMCPServer(s *Service, version string) *server.MCPServer {
	srv := server.NewMCPServer("hsregistry", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, s)
	return srv
}

// RegisterMCPTools registers the registry MCP tools on the server. They
// dispatch to the same endpoints as the HTTP router.
func RegisterMCPTools(srv *server.MCPServer, s *Service) {
	ep := newEndpoints(s)
	registerNormalize(srv, ep)
	registerMatch(srv, ep)
	registerListPrep(srv, ep)
}

func registerNormalize(srv *server.MCPServer, ep *endpoints) {
	tool := mcp.NewTool("normalize_school",
		mcp.WithDescription("Normalize a high school name: matching key, school type, parenthetical qualifier, suffix and prep-school alias."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The school name as written in the source data")),
	)

	kit.RegisterMCPTool(srv, tool, ep.normalize, decodeNormalize)
}

func decodeNormalize(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	name, _ := req.GetArguments()["name"].(string)
	return &kit.MCPDecodeResult{Request: &normalizeReq{Name: name}}, nil
}

func registerMatch(srv *server.MCPServer, ep *endpoints) {
	tool := mcp.NewTool("match_school",
		mcp.WithDescription("Match a school name against the NCES directories (public CCD and private PSS). Returns the NCES id, official name, address and a confidence of exact, ambiguous or none."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The school name")),
		mcp.WithString("state", mcp.Description("Two-letter state code; empty searches every state")),
		mcp.WithString("city", mcp.Description("City used to narrow several candidates")),
	)

	kit.RegisterMCPTool(srv, tool, ep.match, decodeMatch)
}

func decodeMatch(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	state, _ := args["state"].(string)
	city, _ := args["city"].(string)
	return &kit.MCPDecodeResult{Request: &matchReq{Name: name, State: state, City: city}}, nil
}

func registerListPrep(srv *server.MCPServer, ep *endpoints) {
	tool := mcp.NewTool("list_prep_schools",
		mcp.WithDescription("List the curated prep-school aliases with their canonical names and locations."),
	)

	kit.RegisterMCPTool(srv, tool, ep.listPrep, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
