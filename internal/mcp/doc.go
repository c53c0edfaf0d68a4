// Package mcp implements the MCP server surface for knowctx.
//
// It exposes four tools over stdio: ingest_document, retrieve_knowledge,
// remove_document and knowledge_status. Handlers validate parameters,
// translate failures into JSON-RPC error codes, and return indented JSON
// text results. Stdout carries the protocol, so all logging goes to stderr.
package mcp
