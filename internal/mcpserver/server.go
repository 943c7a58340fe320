// Package mcpserver exposes the timestamp formatter as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/Dicklesworthstone/safehook/internal/timestamp"
	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultName is the implementation name announced to clients.
const DefaultName = "TimeServer"

// Tool names.
const (
	ToolCurrentTime        = "get_current_time"
	ToolFormattedTimestamp = "get_formatted_timestamp"
	ToolISOTimestamp       = "get_iso_timestamp"
	ToolDateOnly           = "get_date_only"
	ToolTimeOnly           = "get_time_only"
)

// NoArgs is the input of every tool.
type NoArgs struct{}

type toolDef struct {
	name        string
	description string
	format      func(*timestamp.Clock) string
}

var tools = []toolDef{
	{ToolCurrentTime, "Returns the current time in the configured timezone (default Japan). Format: YYYY-MM-DD HH:MM:SS", (*timestamp.Clock).CurrentTime},
	{ToolFormattedTimestamp, "Returns a timestamp formatted for documents, e.g. \"Last updated: 2025-01-10 14:30:45 JST\"", (*timestamp.Clock).FormattedTimestamp},
	{ToolISOTimestamp, "Returns an ISO 8601 timestamp with the timezone offset.", (*timestamp.Clock).ISOTimestamp},
	{ToolDateOnly, "Returns the current date only. Format: YYYY-MM-DD", (*timestamp.Clock).DateOnly},
	{ToolTimeOnly, "Returns the current time only. Format: HH:MM:SS", (*timestamp.Clock).TimeOnly},
}

// ToolNames lists the registered tool names in registration order.
func ToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.name
	}
	return names
}

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	Clock   *timestamp.Clock
	Logger  *log.Logger
}

// Server is an MCP server whose clock can be replaced while it runs.
type Server struct {
	clock  atomic.Pointer[timestamp.Clock]
	logger *log.Logger
	server *mcp.Server
}

// New builds the server and registers its tools.
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Clock == nil {
		opts.Clock = timestamp.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{logger: opts.Logger.WithPrefix("mcp")}
	s.clock.Store(opts.Clock)
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}, nil)

	for _, t := range tools {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        t.name,
			Description: t.description,
		}, s.handler(t))
	}
	return s
}

func (s *Server) handler(t toolDef) func(context.Context, *mcp.CallToolRequest, NoArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, any, error) {
		text := t.format(s.Clock())
		s.logger.Debug("tool call", "tool", t.name, "result", text)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// Clock returns the clock used by tool calls.
func (s *Server) Clock() *timestamp.Clock {
	return s.clock.Load()
}

// SetClock replaces the clock for subsequent tool calls.
func (s *Server) SetClock(c *timestamp.Clock) {
	if c == nil {
		return
	}
	s.clock.Store(c)
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves on transport until ctx is done or the peer disconnects.
// A closed input stream is a normal stop and returns nil.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	err := s.server.Run(ctx, transport)
	if err == nil || isClosed(err) || ctx.Err() != nil {
		s.logger.Debug("server stopped", "err", err)
		return nil
	}
	return err
}

// ServeStdio serves on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing")
}
