// Package server implements the MCP (Model Context Protocol) server for document parsing tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the entity extraction
// pipeline through the MCP protocol, so MCP-compatible clients can turn scanned
// form and invoice pages into typed entities.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Document parsing:
//   - document_parse: OCR, label and group one page, optionally exporting to json, csv or xlsx
//   - document_parse_batch: Parse several pages concurrently
//   - document_ocr_words: Raw OCR words with line indices
//   - document_health: Labeling model and OCR availability
//
// Entity operations:
//   - entities_group: Group labeled words into entities without touching an image
//   - entities_render: Draw entity boxes over the page
//   - entity_crop: Extract the region of one entity
//
// Page images:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_ocr_region: Extract text from region
//
// # Image Caching
//
// Page images read by the image and entity tools are cached by path for the
// lifetime of the process. Parse results are cached separately by the
// pipeline, keyed on upload contents.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Deps{Parser: parser, OCR: engine, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("mcp server stopped")
//	}
package server
