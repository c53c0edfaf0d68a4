package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/devctx/knowctx/internal/embedder"
	"github.com/devctx/knowctx/internal/indexer"
	"github.com/devctx/knowctx/internal/retriever"
	"github.com/devctx/knowctx/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "knowctx-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	store     storage.Store
	embedder  embedder.Embedder
	indexer   *indexer.Indexer
	retriever *retriever.Service
}

// defaultDBFile resolves the database location when none is configured
func defaultDBFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".knowctx", "knowctx.db"), nil
}

// NewServer creates an MCP server wired to storage, embedding, ingestion,
// and retrieval. An empty dbPath uses ~/.knowctx/knowctx.db.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" {
		var err error
		dbPath, err = defaultDBFile()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		store:     store,
		embedder:  emb,
		indexer:   indexer.New(store, emb),
		retriever: retriever.NewService(store, emb),
	}
	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentTool(), s.handleIngestDocument)
	s.mcp.AddTool(retrieveKnowledgeTool(), s.handleRetrieveKnowledge)
	s.mcp.AddTool(removeDocumentTool(), s.handleRemoveDocument)
	s.mcp.AddTool(knowledgeStatusTool(), s.handleKnowledgeStatus)
}
