package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const sheetsURI = "charsheet://sheets"

// RequiredResponse is the structured result of required_user_values.
type RequiredResponse struct {
	Key      string   `json:"key" jsonschema_description:"The sheet key"`
	Required []string `json:"required" jsonschema_description:"User values the sheet depends on that no feature defines"`
}

// Sessions is the part of session.Manager the MCP tools drive.
type Sessions interface {
	Create(ctx context.Context, document []byte) (string, error)
	Snapshot(ctx context.Context, key string) ([]byte, error)
	Apply(ctx context.Context, key string, changes ...domain.Change) error
	Required(ctx context.Context, key string) ([]string, error)
	Close(ctx context.Context, key string) error
	List() []string
}

// Server exposes live character sheets as MCP tools.
type Server struct {
	sessions  Sessions
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards logs.
func NewServer(sessions Sessions, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("charsheet-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sheets",
		mcp.WithDescription("List the keys of live character sheets."),
	), s.handleListSheets)

	s.mcpServer.AddTool(mcp.NewTool("create_sheet",
		mcp.WithDescription("Start a character sheet from an engine document and return its key."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The sheet document as JSON")),
	), s.handleCreateSheet)

	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Get the last synchronized snapshot of a sheet."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Sheet key")),
	), s.handleGetSnapshot)

	s.mcpServer.AddTool(mcp.NewTool("set_user_value",
		mcp.WithDescription("Set one user value in dice notation, e.g. 12 or 2d6+3. Empty text unsets it."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Sheet key")),
		mcp.WithString("property", mcp.Required(), mcp.Description("User value name")),
		mcp.WithString("value", mcp.Description("Dice notation")),
	), s.handleSetUserValue)

	s.mcpServer.AddTool(mcp.NewTool("apply_changes",
		mcp.WithDescription("Apply a change object or a JSON array of changes to a sheet."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Sheet key")),
		mcp.WithString("changes", mcp.Required(), mcp.Description("JSON change or array of changes")),
	), s.handleApplyChanges)

	s.mcpServer.AddTool(mcp.NewTool("required_user_values",
		mcp.WithDescription("List the user values a sheet depends on that no feature defines."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Sheet key")),
		mcp.WithOutputSchema[RequiredResponse](),
	), mcp.NewStructuredToolHandler(s.handleRequired))

	s.mcpServer.AddTool(mcp.NewTool("close_sheet",
		mcp.WithDescription("Close a sheet and discard its persisted snapshot."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Sheet key")),
	), s.handleCloseSheet)
}

func (s *Server) handleListSheets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := json.Marshal(s.sessions.List())
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleCreateSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !json.Valid([]byte(document)) {
		return mcp.NewToolResultError("document is not valid JSON"), nil
	}
	key, err := s.sessions.Create(ctx, []byte(document))
	if err != nil && key == "" {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	if err != nil {
		s.logger.Warn("MCP: sheet started but not persisted", "sheet", key, "err", err)
	}
	return mcp.NewToolResultText(key), nil
}

func (s *Server) handleGetSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.sessions.Snapshot(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSetUserValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := sanitize.Input(request.GetString("value", ""))
	if err != nil {
		s.logger.Warn("MCP: input rejected", "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := dice.Parse(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Apply(ctx, key, domain.UserInput(property, value)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %s", property, dice.Render(value))), nil
}

func (s *Server) handleApplyChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawText, err := request.RequireString("changes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var raw any
	if err := json.Unmarshal([]byte(rawText), &raw); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("changes are not valid JSON: %v", err)), nil
	}
	changes, err := domain.DecodeChanges(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.sessions.Apply(ctx, key, changes...); err != nil {
		if errors.Is(err, domain.ErrSheetNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		// Accepted changes stay applied.
		return mcp.NewToolResultError(fmt.Sprintf("some changes were rejected: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("applied %d changes", len(changes))), nil
}

func (s *Server) handleRequired(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RequiredResponse, error) {
	key, _ := args["key"].(string)
	names, err := s.sessions.Required(ctx, key)
	if err != nil {
		return RequiredResponse{}, fmt.Errorf("required failed: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return RequiredResponse{Key: key, Required: names}, nil
}

func (s *Server) handleCloseSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Close(ctx, key); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
	}
	return mcp.NewToolResultText("closed " + key), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sheetsURI, "Live Character Sheets",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.sessions.List())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sheetsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
