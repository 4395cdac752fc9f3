// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes draft generation tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/draftservice"
	"github.com/starford/versedraft/internal/models"
)

const contractURI = "versedraft://markup-contract"

// Server wraps the MCP server with versedraft tools.
type Server struct {
	mcp *server.MCPServer
	svc *draftservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *draftservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"versedraft",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List the books of a translation project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("generate_book_draft",
		mcp.WithDescription("Render the draft of one book from its active translation records. "+
			"Overwrites the latest draft of that book, or creates it. Inline tag placement is "+
			"positional; read the markup contract before editing the result."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Book ID")),
	), s.generateBookDraft)

	s.mcp.AddTool(mcp.NewTool("generate_project_draft",
		mcp.WithDescription("Render a new draft for a whole project, or only the named book. "+
			"Always creates a new draft."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("book_name", mcp.Description("Optional book name or code, e.g. Psalms or PSA")),
	), s.generateProjectDraft)

	s.mcp.AddTool(mcp.NewTool("read_draft",
		mcp.WithDescription("Read the full markup of a draft."),
		mcp.WithString("draft_id", mcp.Required(), mcp.Description("Draft ID")),
	), s.readDraft)

	s.mcp.AddTool(mcp.NewTool("list_drafts",
		mcp.WithDescription("List draft metadata for a project, newest first."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	), s.listDrafts)

	s.mcp.AddTool(mcp.NewTool("get_markup_contract",
		mcp.WithDescription("Returns the contract for generated draft markup, including the "+
			"limits of inline tag realignment."),
	), s.getMarkupContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Draft Markup Contract",
			mcp.WithResourceDescription("What generated drafts preserve and how inline tags are placed."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool result the caller can read.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrNoTranslatableContent):
		return mcp.NewToolResultError("no translatable content: add active translation records first")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// withoutContent strips the markup so tool output stays small.
func withoutContent(d *models.Draft) models.Draft {
	out := *d
	out.Content = ""
	return out
}

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	books, err := s.svc.ListBooks(ctx, projectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(books), nil
}

func (s *Server) generateBookDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bookID, err := req.RequireString("book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GenerateDraftForBook(ctx, projectID, bookID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(withoutContent(d)), nil
}

func (s *Server) generateProjectDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GenerateDraftForProject(ctx, projectID, req.GetString("book_name", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(withoutContent(d)), nil
}

func (s *Server) readDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("draft_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetDraft(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(d.Content), nil
}

func (s *Server) listDrafts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	drafts, err := s.svc.ListDrafts(ctx, projectID)
	if err != nil {
		return toolError(err), nil
	}
	if len(drafts) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no drafts for project %s", projectID)), nil
	}
	return jsonResult(drafts), nil
}

func (s *Server) getMarkupContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}
