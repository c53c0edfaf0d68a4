package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDocumentTool returns the tool definition for ingest_document
func ingestDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a knowledge document: chunk it, embed the chunks, and make it retrievable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Stable document identifier. Re-ingesting the same id replaces the document; omit to generate one",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
				"source_type": map[string]interface{}{
					"type":        "string",
					"description": "Kind of document",
					"enum":        []string{"code", "markdown", "architecture", "decision", "pattern"},
				},
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository the document came from",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the document within its repository",
				},
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Source URL if the document came from the web",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable title",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Programming or natural language of the content",
				},
				"frameworks": map[string]interface{}{
					"type":        "array",
					"description": "Frameworks the document relates to",
					"items":       map[string]interface{}{"type": "string"},
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Freeform tags",
					"items":       map[string]interface{}{"type": "string"},
				},
				"quality": map[string]interface{}{
					"type":        "string",
					"description": "Editorial confidence tier",
					"enum":        []string{"gold", "silver", "bronze"},
				},
			},
			Required: []string{"content", "source_type"},
		},
	}
}

// retrieveKnowledgeTool returns the tool definition for retrieve_knowledge
func retrieveKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "retrieve_knowledge",
		Description: "Retrieve the most relevant knowledge chunks for a query using hybrid semantic and keyword scoring",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language or keyword query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default 10)",
					"default":     10,
					"minimum":     1,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Drop results scoring below this combined score (0.0-1.0)",
					"default":     0.0,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"diversity_weight": map[string]interface{}{
					"type":        "number",
					"description": "Relevance/novelty trade-off for result diversification; 0 disables it (default 0.3)",
					"default":     0.3,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"include_metadata": map[string]interface{}{
					"type":        "boolean",
					"description": "Carry chunk metadata (names, signatures, line ranges) on results",
					"default":     true,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters over document metadata",
					"properties": map[string]interface{}{
						"source_types": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string", "enum": []string{"code", "markdown", "architecture", "decision", "pattern"}},
						},
						"languages": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"frameworks": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"quality_tiers": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string", "enum": []string{"gold", "silver", "bronze"}},
						},
						"repositories": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"tags": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// removeDocumentTool returns the tool definition for remove_document
func removeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and all of its chunks and embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the document to remove",
				},
			},
			Required: []string{"document_id"},
		},
	}
}

// knowledgeStatusTool returns the tool definition for knowledge_status
func knowledgeStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report what the knowledge store holds and how the server is configured",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
