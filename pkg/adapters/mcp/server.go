package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/script"
	"github.com/esantoro/gaphor/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultDocument is used when a tool call names no document.
const DefaultDocument = "default"

// StatusResponse is the structured output of every history tool.
type StatusResponse struct {
	Status gaphor.Status  `json:"status" jsonschema_description:"Undo/redo state of the document"`
	Result *script.Result `json:"result,omitempty" jsonschema_description:"Outcome of applied steps"`
}

// Server exposes the document registry as an MCP Server.
type Server struct {
	docs      *session.Manager
	runner    *script.Runner
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(docs *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		docs:      docs,
		runner:    script.NewRunner(script.WithLogger(logger)),
		mcpServer: server.NewMCPServer("gaphor-mcp", strings.TrimSpace(gaphor.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func documentArg() mcp.ToolOption {
	return mcp.WithString("document", mcp.Description("Document ID (defaults to \"default\")"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report whether undo and redo are available for a document."),
		documentArg(),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent transaction."),
		documentArg(),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone transaction."),
		documentArg(),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("apply",
		mcp.WithDescription("Apply a list of model steps (create, set, unset, add, remove, delete, begin, commit, discard, undo, redo, backup, restore)."),
		documentArg(),
		mcp.WithString("steps", mcp.Required(), mcp.Description("JSON or YAML array of steps, e.g. [{\"op\":\"create\",\"kind\":\"Class\"}]")),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleApply))

	s.mcpServer.AddTool(mcp.NewTool("get_model",
		mcp.WithDescription("Get a snapshot of every element in the document."),
		documentArg(),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := document(request.GetArguments())
		var payload []byte
		err := s.docs.WithDocument(ctx, id, func(_ context.Context, app *gaphor.Application) error {
			var err error
			payload, err = json.Marshal(app.Factory.Snapshot())
			return err
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get_model failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	})
}

func document(args map[string]interface{}) string {
	if id, ok := args["document"].(string); ok && id != "" {
		return id
	}
	return DefaultDocument
}

func (s *Server) history(ctx context.Context, args map[string]interface{}, fn func(*gaphor.Application)) (StatusResponse, error) {
	var resp StatusResponse
	err := s.docs.WithDocument(ctx, document(args), func(_ context.Context, app *gaphor.Application) error {
		fn(app)
		resp.Status = app.Status()
		return nil
	})
	return resp, err
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	return s.history(ctx, args, func(*gaphor.Application) {})
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	return s.history(ctx, args, (*gaphor.Application).Undo)
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	return s.history(ctx, args, (*gaphor.Application).Redo)
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	raw, _ := args["steps"].(string)
	steps, err := script.Parse(strings.NewReader(raw))
	if err != nil {
		s.logger.Warn("MCP Apply: steps rejected", "err", err)
		return StatusResponse{}, err
	}

	var resp StatusResponse
	err = s.docs.WithDocument(ctx, document(args), func(ctx context.Context, app *gaphor.Application) error {
		var err error
		resp.Result, err = s.runner.Run(ctx, app, steps)
		resp.Status = app.Status()
		return err
	})
	if err != nil {
		return resp, fmt.Errorf("apply failed: %w", err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("gaphor://documents", "Open Documents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.docs.List())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "gaphor://documents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
