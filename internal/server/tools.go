package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the page image",
}

var bboxProperty = map[string]interface{}{
	"type":        "array",
	"description": "Box as [left, top, right, bottom] in page pixels",
	"items":       map[string]interface{}{"type": "integer"},
	"minItems":    4,
	"maxItems":    4,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Document parsing
		{
			Name:        "document_parse",
			Description: "Run OCR, token labeling and entity grouping over a page image. Returns entities keyed by type, each with its merged text and bounding box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"json", "csv", "xlsx"},
						"description": "Export format used when output_path is set. Default json",
						"default":     "json",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write the entities to",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_parse_batch",
			Description: "Parse several page images concurrently. A failing page is reported in its own entry and does not stop the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the page images",
					},
					"concurrency": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum pages parsed at once",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "document_ocr_words",
			Description: "Extract the OCR words of a page with their boxes and line indices, without labeling.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"normalize": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return each box scaled to the 0..1000 model space",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_health",
			Description: "Report whether the labeling model and the OCR engine are available.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Entity operations
		{
			Name:        "entities_group",
			Description: "Group already labeled words into entities. Input words carry text, bbox, line_index and label.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"words": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text":       map[string]interface{}{"type": "string"},
								"bbox":       bboxProperty,
								"line_index": map[string]interface{}{"type": "integer"},
								"label":      map[string]interface{}{"type": "string"},
							},
							"required": []string{"text", "bbox", "line_index", "label"},
						},
					},
					"convention": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"auto", "iob", "flat"},
						"description": "Label convention. Default auto",
					},
					"outside_labels": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Labels meaning not part of any entity. Default [\"O\"]",
					},
					"flat_split_on_begin": map[string]interface{}{
						"type":        "boolean",
						"description": "Under the flat convention, let a B- prefix still start a new entity",
					},
					"malformed_policy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"normalize", "reject"},
						"description": "How words with inverted boxes are handled. Default normalize",
					},
				},
				"required": []string{"words"},
			},
		},
		{
			Name:        "entities_render",
			Description: "Draw entity boxes over the page image and return a base64-encoded PNG with a legend.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"entities": map[string]interface{}{
						"type":        "object",
						"description": "Entities keyed by type, as returned by document_parse",
					},
					"colors": map[string]interface{}{
						"type":        "object",
						"description": "Optional hex color per entity type (e.g., {\"DATE\": \"#ff0000\"})",
					},
					"stroke": map[string]interface{}{
						"type":        "integer",
						"description": "Box line width in pixels. Default 2",
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the entity type above each box. Default true",
						"default":     true,
					},
				},
				"required": []string{"path", "entities"},
			},
		},
		{
			Name:        "entity_crop",
			Description: "Crop the region of one entity from the page and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"bbox": bboxProperty,
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the box. Default 0",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "bbox"},
			},
		},

		// Page images
		{
			Name:        "image_load",
			Description: "Load a page image and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a page image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_ocr_region",
			Description: "Extract text from a rectangular region of a page image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1":   map[string]interface{}{"type": "integer", "description": "Left edge X coordinate"},
					"y1":   map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate"},
					"x2":   map[string]interface{}{"type": "integer", "description": "Right edge X coordinate"},
					"y2":   map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
