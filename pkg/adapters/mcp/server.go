package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
)

// SchemaURI is the resource exposing the compiled schema description.
const SchemaURI = "relstore://schema"

// Server exposes a relstore.Store to MCP clients as tools.
type Server struct {
	store     *relstore.Store
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(store *relstore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:  store,
		logger: logger,
		mcpServer: server.NewMCPServer("relstore-mcp", strings.TrimSpace(relstore.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	table := mcp.WithString("table", mcp.Required(), mcp.Description("Table name, see list_tables"))

	s.mcpServer.AddTool(mcp.NewTool("list_tables",
		mcp.WithDescription("Describe every table of the schema with its fields, types, defaults and constraints."),
	), s.handleListTables)

	s.mcpServer.AddTool(mcp.NewTool("find",
		mcp.WithDescription("Fetch one entity by id."),
		table,
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	), s.handleFind)

	s.mcpServer.AddTool(mcp.NewTool("where",
		mcp.WithDescription("List the entities whose fields equal every given attribute. Without attributes, lists the whole table."),
		table,
		mcp.WithObject("match", mcp.Description("Attribute values to match, e.g. {\"year\": 1965}")),
	), s.handleWhere)

	s.mcpServer.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Create an entity, or replace the stored one when it carries an id. Returns the stored entity or the per-field validation errors."),
		table,
		mcp.WithObject("entity", mcp.Required(), mcp.Description("Field values")),
	), s.handleSave)

	s.mcpServer.AddTool(mcp.NewTool("destroy",
		mcp.WithDescription("Delete one entity by id."),
		table,
		mcp.WithString("id", mcp.Required(), mcp.Description("Entity id")),
	), s.handleDestroy)

	s.mcpServer.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Validate an entity without saving it."),
		table,
		mcp.WithObject("entity", mcp.Required(), mcp.Description("Field values")),
	), s.handleValidate)
}

func (s *Server) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Schema().Describe())
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, id, errResult := s.tableAndID(request)
	if errResult != nil {
		return errResult, nil
	}
	e, err := t.Find(ctx, id)
	if err != nil {
		return s.toolError("find", err), nil
	}
	return jsonResult(e)
}

func (s *Server) handleWhere(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errResult := s.table(request)
	if errResult != nil {
		return errResult, nil
	}

	var filter *entity.Filter
	if raw, ok := request.GetArguments()["match"]; ok && raw != nil {
		attrs, err := object(raw)
		if err != nil {
			return mcp.NewToolResultError("match: " + err.Error()), nil
		}
		if len(attrs) > 0 {
			filter = entity.Match(attrs)
		}
	}

	entities, err := t.Where(ctx, filter)
	if err != nil {
		return s.toolError("where", err), nil
	}
	return jsonResult(entities)
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errResult := s.table(request)
	if errResult != nil {
		return errResult, nil
	}
	e, err := object(request.GetArguments()["entity"])
	if err != nil {
		return mcp.NewToolResultError("entity: " + err.Error()), nil
	}

	saved, err := t.Save(ctx, e)
	if err != nil {
		return s.toolError("save", err), nil
	}
	return jsonResult(saved)
}

func (s *Server) handleDestroy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, id, errResult := s.tableAndID(request)
	if errResult != nil {
		return errResult, nil
	}
	if _, err := t.Destroy(ctx, id); err != nil {
		return s.toolError("destroy", err), nil
	}
	return jsonResult(map[string]any{"destroyed": id})
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errResult := s.table(request)
	if errResult != nil {
		return errResult, nil
	}
	e, err := object(request.GetArguments()["entity"])
	if err != nil {
		return mcp.NewToolResultError("entity: " + err.Error()), nil
	}

	errs, valid := t.Validate(e)
	return jsonResult(map[string]any{"valid": valid, "errors": errs})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SchemaURI, "Schema",
		mcp.WithResourceDescription("Tables, fields and constraints of the store"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := codec.MarshalIndent(s.store.Schema().Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe schema: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SchemaURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// -- Helpers --

func (s *Server) table(request mcp.CallToolRequest) (*entity.Table, *mcp.CallToolResult) {
	name, err := request.RequireString("table")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	t, err := s.store.Table(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return t, nil
}

func (s *Server) tableAndID(request mcp.CallToolRequest) (*entity.Table, string, *mcp.CallToolResult) {
	t, errResult := s.table(request)
	if errResult != nil {
		return nil, "", errResult
	}
	id, err := request.RequireString("id")
	if err != nil {
		return nil, "", mcp.NewToolResultError(err.Error())
	}
	return t, id, nil
}

// toolError reports domain failures to the model as tool errors. Validation errors
// carry the field map so the caller can correct its input.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if fields := domain.FieldErrorsOf(err); fields != nil {
		data, merr := codec.Marshal(map[string]any{"error": err.Error(), "fields": fields})
		if merr != nil {
			s.logger.Error("failed to encode validation errors", "tool", op, "error", merr)
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultError(string(data))
	}
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrSchema) {
		s.logger.Error("MCP tool failed", "tool", op, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

// object re-decodes a tool argument through the codec so numbers get the same
// int64/float64 normalisation as stored blobs.
func object(raw any) (domain.Entity, error) {
	if raw == nil {
		return nil, errors.New("an object is required")
	}
	data, err := codec.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return codec.DecodeEntity(data)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
