// Package mcp exposes the photo library to AI assistants over the
// Model Context Protocol.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/takeshy/wallframe/internal/googlephotos"
	"github.com/takeshy/wallframe/internal/library"
)

// Server wraps the MCP server with wallframe-specific functionality.
type Server struct {
	mcpServer *mcp.Server
	library   *library.Library
	picker    *googlephotos.Picker
	log       *slog.Logger
}

// NewServer creates an MCP server over the photo library.
func NewServer(lib *library.Library, picker *googlephotos.Picker, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "wallframe",
		Version: version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		library:   lib,
		picker:    picker,
		log:       log,
	}
	s.registerTools()
	return s
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_photos",
		Description: "List the photos currently served to the screensaver, from the configured source (local folder or Google Photos picks), including capture date and location metadata.",
	}, s.handleListPhotos)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "library_status",
		Description: "Report the photo library status: active source, Google Photos authentication state, cached photo count and cache age.",
	}, s.handleLibraryStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_picker_session",
		Description: "Open a Google Photos picker session. Returns the picker URI the user must visit to select photos, plus the session id to poll.",
	}, s.handleCreateSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "poll_picker_session",
		Description: "Check whether the user has finished selecting photos in a picker session. Re-poll at the suggested interval until media_items_set is true.",
	}, s.handlePollSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "fetch_picker_photos",
		Description: "Fetch the photos selected in a completed picker session and replace the cached Google Photos list with them.",
	}, s.handleFetchPhotos)
}

// RunStdio runs the server using stdio transport
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// NewHTTPHandler creates an HTTP handler for SSE transport
func (s *Server) NewHTTPHandler() http.Handler {
	return mcp.NewSSEHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// NewStreamableHTTPHandler creates a streamable HTTP handler
func (s *Server) NewStreamableHTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}
