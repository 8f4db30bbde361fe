package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/takeshy/wallframe/internal/mcp"
)

var (
	mcpTransport string
	mcpPort      int
	mcpAPIKey    string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI assistant integration",
	Long: `Start a Model Context Protocol (MCP) server that exposes the photo
library to AI assistants.

Transport options:
  stdio: Standard input/output (default, for local CLI integration)
  sse:   Server-Sent Events over HTTP (for remote connections, requires API key)
  http:  Streamable HTTP (for bidirectional HTTP communication, requires API key)

Examples:
  # Start stdio server (for assistant desktop config)
  wallframe mcp

  # Start HTTP/SSE server on port 8090 (API key required)
  wallframe mcp --transport sse --port 8090 --mcp-api-key mysecretkey

  # Or use environment variable for API key
  export WALLFRAME_MCP_API_KEY=mysecretkey
  wallframe mcp --transport sse --port 8090`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport type: stdio, sse, or http")
	mcpCmd.Flags().IntVar(&mcpPort, "port", 8090, "Port for HTTP/SSE server")
	mcpCmd.Flags().StringVar(&mcpAPIKey, "mcp-api-key", "", "API key for HTTP authentication (or WALLFRAME_MCP_API_KEY env var)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(app.library, app.picker, Version, app.log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch mcpTransport {
	case "stdio":
		go func() {
			<-sigChan
			cancel()
		}()
		fmt.Fprintln(os.Stderr, "Starting MCP server on stdio...")
		return server.RunStdio(ctx)

	case "sse":
		return runMCPHTTPServer(server.NewHTTPHandler(), "SSE", sigChan)

	case "http":
		return runMCPHTTPServer(server.NewStreamableHTTPHandler(), "HTTP", sigChan)

	default:
		return fmt.Errorf("unknown transport: %s (must be stdio, sse, or http)", mcpTransport)
	}
}

func runMCPHTTPServer(handler http.Handler, transportName string, sigChan chan os.Signal) error {
	apiKey := mcpAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("WALLFRAME_MCP_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key required for HTTP server. Use --mcp-api-key or set WALLFRAME_MCP_API_KEY environment variable")
	}

	handler = mcpserver.APIKeyMiddleware(apiKey, handler)

	addr := fmt.Sprintf(":%d", mcpPort)
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful shutdown on signal
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	fmt.Fprintf(os.Stderr, "Starting MCP %s server on http://localhost%s (API key authentication enabled)\n", transportName, addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
