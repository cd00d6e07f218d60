package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/format"
	"github.com/sandevgo/tuskmem/pkg/cache"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type Assembler interface {
	core.ContextProvider
	CacheStats() cache.Stats[string]
}

// Server exposes the assembler as MCP tools over stdio.
type Server struct {
	mcp       *server.MCPServer
	assembler Assembler
	maxTokens int
	in        io.Reader
	out       io.Writer
}

func NewServer(assembler Assembler, maxTokens int) *Server {
	s := &Server{
		mcp: server.NewMCPServer(core.TuskName, core.TuskVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		assembler: assembler,
		maxTokens: maxTokens,
		in:        os.Stdin,
		out:       os.Stdout,
	}
	s.registerTools()
	return s
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting mcp stdio server")

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logger, "", 0))
	return stdio.Listen(ctx, s.in, s.out)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcpproto.NewTool("get_context",
		mcpproto.WithDescription("Retrieve the remembered context for a user, packed into a token budget"),
		mcpproto.WithString("user_id", mcpproto.Required(), mcpproto.Description("User the context belongs to")),
		mcpproto.WithString("query", mcpproto.Description("Current message, used to find relevant memories")),
		mcpproto.WithString("call_id", mcpproto.Description("Conversation turn id, enables recent memories")),
		mcpproto.WithNumber("max_tokens", mcpproto.Description("Token budget, defaults to the configured one")),
		mcpproto.WithBoolean("json", mcpproto.Description("Return the full record and selection as JSON")),
	), s.handleGetContext)

	s.mcp.AddTool(mcpproto.NewTool("remember",
		mcpproto.WithDescription("Store a fact about a user"),
		mcpproto.WithString("user_id", mcpproto.Required(), mcpproto.Description("User the fact belongs to")),
		mcpproto.WithString("content", mcpproto.Required(), mcpproto.Description("The fact to remember")),
		mcpproto.WithBoolean("static", mcpproto.Description("Lasting fact rather than a current one")),
	), s.handleRemember)

	s.mcp.AddTool(mcpproto.NewTool("format_sections",
		mcpproto.WithDescription("Rank, deduplicate and pack content sections into a token budget"),
		mcpproto.WithString("sections", mcpproto.Required(), mcpproto.Description(`JSON array of {"id","content","priority","tokens","source"}`)),
		mcpproto.WithNumber("max_tokens", mcpproto.Required(), mcpproto.Description("Token budget")),
		mcpproto.WithBoolean("include_tokens", mcpproto.Description("Append token counts and a total line")),
		mcpproto.WithBoolean("include_metadata", mcpproto.Description("Append sources and return selection metadata")),
	), s.handleFormatSections)

	s.mcp.AddTool(mcpproto.NewTool("cache_stats",
		mcpproto.WithDescription("Show profile cache statistics"),
	), s.handleCacheStats)
}

func (s *Server) handleGetContext(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	p, err := s.assembler.BuildPrompt(ctx, core.ContextRequest{
		UserID:    userID,
		Query:     req.GetString("query", ""),
		CallID:    req.GetString("call_id", ""),
		MaxTokens: int(req.GetFloat("max_tokens", 0)),
	}, core.FormatOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return mcpproto.NewToolResultErrorFromErr("get context", err), nil
	}

	if req.GetBool("json", false) {
		return jsonResult(p)
	}
	return mcpproto.NewToolResultText(p.Output.Formatted), nil
}

func (s *Server) handleRemember(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	resp, err := s.assembler.Remember(ctx, userID, content, req.GetBool("static", false))
	if err != nil {
		return mcpproto.NewToolResultErrorFromErr("remember", err), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleFormatSections(_ context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	raw, err := req.RequireString("sections")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	maxTokens, err := req.RequireFloat("max_tokens")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	var sections []core.ContentSection
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("sections must be a JSON array: %v", err)), nil
	}

	out, err := format.Format(format.WithEstimatedTokens(sections), format.Options{
		MaxTokens:       int(maxTokens),
		IncludeTokens:   req.GetBool("include_tokens", false),
		IncludeMetadata: req.GetBool("include_metadata", false),
	})
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) handleCacheStats(_ context.Context, _ mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return jsonResult(s.assembler.CacheStats())
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
