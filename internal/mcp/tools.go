package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/devctx/knowctx/internal/storage"
	"github.com/devctx/knowctx/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound = -32001 // Document id not present in the store
	ErrorCodeEmptyQuery       = -32002 // Query parameter is empty
)

// handleIngestDocument handles the ingest_document tool invocation
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	sourceType, ok := args["source_type"].(string)
	if !ok || sourceType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source_type parameter is required", map[string]interface{}{
			"param":  "source_type",
			"reason": "missing or empty",
		})
	}

	doc := &types.Document{
		ID:      getStringDefault(args, "id", ""),
		Content: content,
		Source: types.DocumentSource{
			Type:       types.SourceType(sourceType),
			Repository: getStringDefault(args, "repository", ""),
			FilePath:   getStringDefault(args, "file_path", ""),
			URL:        getStringDefault(args, "url", ""),
		},
		Metadata: types.DocumentMetadata{
			Title:      getStringDefault(args, "title", ""),
			Language:   getStringDefault(args, "language", ""),
			Frameworks: getStringSlice(args, "frameworks"),
			Tags:       getStringSlice(args, "tags"),
			Quality:    types.QualityTier(getStringDefault(args, "quality", "")),
		},
	}

	if err := doc.ValidateSourceType(); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid source_type", map[string]interface{}{
			"param": "source_type",
			"value": sourceType,
		})
	}

	stats, err := s.indexer.IngestDocument(ctx, doc, nil)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cached responses predate this document's chunks
	s.retriever.InvalidateCache()

	response := map[string]interface{}{
		"document_id":     stats.DocumentID,
		"skipped":         stats.Skipped,
		"chunks_created":  stats.ChunksCreated,
		"chunks_embedded": stats.ChunksEmbedded,
		"duration_ms":     stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		response["warnings"] = stats.ErrorMessages
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRetrieveKnowledge handles the retrieve_knowledge tool invocation
func (s *Server) handleRetrieveKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queryText, ok := args["query"].(string)
	if !ok || queryText == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	opts := types.DefaultRetrievalOptions()
	opts.Limit = getIntDefault(args, "limit", opts.Limit)
	opts.MinScore = getFloatDefault(args, "min_score", opts.MinScore)
	opts.DiversityWeight = getFloatDefault(args, "diversity_weight", opts.DiversityWeight)
	opts.IncludeMetadata = getBoolDefault(args, "include_metadata", opts.IncludeMetadata)

	query := types.RetrievalQuery{
		Text:    queryText,
		Options: &opts,
		Filters: parseFilters(args),
	}

	response, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		var validation *types.ValidationError
		if errors.As(err, &validation) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid retrieval options", map[string]interface{}{
				"param":  validation.Field,
				"reason": validation.Reason,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	body, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(string(body)), nil
}

// handleRemoveDocument handles the remove_document tool invocation
func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}

	err := s.indexer.RemoveDocument(ctx, documentID)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeDocumentNotFound, "document not found", map[string]interface{}{
			"document_id": documentID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "removal failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.retriever.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"removed":     true,
		"document_id": documentID,
	})), nil
}

// handleKnowledgeStatus handles the knowledge_status tool invocation
func (s *Server) handleKnowledgeStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.store.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"documents":  status.Documents,
		"chunks":     status.Chunks,
		"embeddings": status.Embeddings,
		"storage": map[string]interface{}{
			"size_mb":        fmt.Sprintf("%.2f", status.DBSizeMB),
			"schema_version": status.SchemaVersion,
			"build_mode":     status.BuildMode,
		},
		"embedder": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// parseFilters builds retrieval filters from the request arguments,
// returning nil when no filters were supplied
func parseFilters(args map[string]interface{}) *types.RetrievalFilters {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil
	}

	filters := &types.RetrievalFilters{
		Languages:    getStringSlice(raw, "languages"),
		Frameworks:   getStringSlice(raw, "frameworks"),
		Repositories: getStringSlice(raw, "repositories"),
		Tags:         getStringSlice(raw, "tags"),
	}
	for _, st := range getStringSlice(raw, "source_types") {
		filters.SourceTypes = append(filters.SourceTypes, types.SourceType(st))
	}
	for _, q := range getStringSlice(raw, "quality_tiers") {
		filters.QualityTiers = append(filters.QualityTiers, types.QualityTier(q))
	}

	if filters.Empty() {
		return nil
	}
	return filters
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, tolerating the
// []interface{} decoding JSON produces
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var values []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
