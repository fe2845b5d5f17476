// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the conversion pipeline as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/converter"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linker"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/tagger"
)

// Server wraps the MCP server with conversion tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *converter.Service
	store  storage.Provider
	db     index.NoteIndex
	corpus *linker.Corpus
}

// New creates a new MCP server with all tools registered.
func New(svc *converter.Service, store storage.Provider, db index.NoteIndex, corpus *linker.Corpus) *Server {
	s := &Server{svc: svc, store: store, db: db, corpus: corpus}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_text",
		mcp.WithDescription("Convert raw text into structured Markdown notes in the vault. "+
			"Returns the vault paths of the notes created."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw text to convert")),
		mcp.WithString("label", mcp.Description("Source label used for logging and title fallback")),
	), s.convertText)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Suggest related existing notes for a piece of text, "+
			"ranked by term similarity."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to find related notes for")),
	), s.suggestLinks)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search converted notes by title and body."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List converted notes, optionally filtered by category."),
		mcp.WithString("category", mcp.Description("Optional canonical category to filter by")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a vault note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. technology/202501011200-note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("categorize",
		mcp.WithDescription("Map a free-form topic label to one of the canonical categories "+
			"and synthesize tags for it."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Free-form topic or title")),
	), s.categorize)

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

func (s *Server) convertText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label := "mcp-upload"
	if l, lerr := req.RequireString("label"); lerr == nil && l != "" {
		label = l
	}

	paths, err := s.svc.ConvertText(ctx, content, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no notes created"), nil
	}
	return mcp.NewToolResultText("created:\n" + strings.Join(paths, "\n")), nil
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	suggestions := s.corpus.Query(text, 10, 0.2)
	if len(suggestions) == 0 {
		return mcp.NewToolResultText("no related notes found"), nil
	}
	out, _ := json.MarshalIndent(suggestions, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}

	rows, _, err := s.db.ListNotes(200, 0, category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", row.Path, row.Category, row.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) categorize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	category := classify.Categorize(label)
	tags := tagger.Synthesize(label, "")

	out, _ := json.MarshalIndent(struct {
		Category models.Category `json:"category"`
		Tags     []string        `json:"tags"`
	}{Category: category, Tags: tags}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
