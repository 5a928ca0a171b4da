package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/export"
	"github.com/ironsheep/docparse-mcp/internal/imaging"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
	"github.com/ironsheep/docparse-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_parse", "entities_group").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Document parsing
	case "document_parse":
		return s.handleDocumentParse(ctx, args)
	case "document_parse_batch":
		return s.handleDocumentParseBatch(ctx, args)
	case "document_ocr_words":
		return s.handleDocumentOCRWords(ctx, args)
	case "document_health":
		return s.handleDocumentHealth(ctx)

	// Entity operations
	case "entities_group":
		return s.handleEntitiesGroup(args)
	case "entities_render":
		return s.handleEntitiesRender(args)
	case "entity_crop":
		return s.handleEntityCrop(args)

	// Page images
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_ocr_region":
		return s.handleImageOCRRegion(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

var errNoPath = errors.New("path is required")

// === Document Handlers ===

type documentParseArgs struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

type documentParseResult struct {
	*pipeline.Result
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleDocumentParse(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errNoPath
	}
	format, err := export.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Parser.ParseFile(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	out := documentParseResult{Result: res}

	if a.OutputPath != "" {
		f, err := os.Create(a.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		if err := export.Write(f, format, res.Entities); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing %s export: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
	}
	return out, nil
}

type documentParseBatchArgs struct {
	Paths       []string `json:"paths"`
	Concurrency int      `json:"concurrency"`
}

type batchEntry struct {
	Source string           `json:"source"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (s *Server) handleDocumentParseBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentParseBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must list at least one image")
	}
	if a.Concurrency <= 0 {
		a.Concurrency = s.deps.BatchConcurrency
	}

	items := s.deps.Parser.ParseBatch(ctx, a.Paths, a.Concurrency)
	entries := make([]batchEntry, len(items))
	failed := 0
	for i, it := range items {
		entries[i] = batchEntry{Source: it.Source, Result: it.Result}
		if it.Err != nil {
			entries[i].Error = it.Err.Error()
			failed++
		}
	}
	return map[string]interface{}{
		"documents": entries,
		"succeeded": len(items) - failed,
		"failed":    failed,
	}, nil
}

type documentOCRWordsArgs struct {
	Path      string `json:"path"`
	Normalize bool   `json:"normalize"`
}

type ocrWord struct {
	ocr.Word
	Normalized *[4]int `json:"normalized_bbox,omitempty"`
}

func (s *Server) handleDocumentOCRWords(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentOCRWordsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	words, err := s.deps.OCR.ExtractWords(ctx, img)
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]ocrWord, len(words))
	for i, word := range words {
		out[i] = ocrWord{Word: word}
		if a.Normalize {
			n := imaging.NormalizeBox(word.BBox, w, h)
			out[i].Normalized = &n
		}
	}
	return map[string]interface{}{
		"width":  w,
		"height": h,
		"count":  len(out),
		"words":  out,
	}, nil
}

func (s *Server) handleDocumentHealth(ctx context.Context) (interface{}, error) {
	result := map[string]interface{}{}
	info, err := s.deps.Parser.Labeler().Info(ctx)
	if err != nil {
		result["model_error"] = err.Error()
	} else {
		result["model_loaded"] = info.Loaded
		result["device"] = info.Device
		result["model"] = info.Model
	}
	if s.deps.OCR != nil {
		result["ocr"] = s.deps.OCR.Info()
	}
	return result, nil
}

// === Entity Handlers ===

type entitiesGroupArgs struct {
	Words            []entity.WordRecord `json:"words"`
	Convention       string              `json:"convention"`
	OutsideLabels    []string            `json:"outside_labels"`
	FlatSplitOnBegin *bool               `json:"flat_split_on_begin"`
	MalformedPolicy  string              `json:"malformed_policy"`
}

func (s *Server) handleEntitiesGroup(args json.RawMessage) (interface{}, error) {
	var a entitiesGroupArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts := append([]entity.Option(nil), s.deps.Grouping...)
	if a.Convention != "" {
		conv, err := entity.ParseConvention(a.Convention)
		if err != nil {
			return nil, err
		}
		opts = append(opts, entity.WithConvention(conv))
	}
	if len(a.OutsideLabels) > 0 {
		opts = append(opts, entity.WithOutsideLabels(a.OutsideLabels...))
	}
	if a.FlatSplitOnBegin != nil {
		opts = append(opts, entity.WithFlatSplitOnBegin(*a.FlatSplitOnBegin))
	}
	switch a.MalformedPolicy {
	case "":
	case "normalize":
		opts = append(opts, entity.WithMalformedPolicy(entity.NormalizeMalformed))
	case "reject":
		opts = append(opts, entity.WithMalformedPolicy(entity.RejectMalformed))
	default:
		return nil, fmt.Errorf("unknown malformed_policy %q", a.MalformedPolicy)
	}

	c, report := entity.New(opts...).Group(a.Words)
	return map[string]interface{}{
		"entities": c,
		"report":   report,
	}, nil
}

type entitiesRenderArgs struct {
	Path       string            `json:"path"`
	Entities   entity.Collection `json:"entities"`
	Colors     map[string]string `json:"colors"`
	Stroke     int               `json:"stroke"`
	ShowLabels *bool             `json:"show_labels"`
}

func (s *Server) handleEntitiesRender(args json.RawMessage) (interface{}, error) {
	var a entitiesRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	showLabels := true
	if a.ShowLabels != nil {
		showLabels = *a.ShowLabels
	}
	return imaging.RenderEntities(img, a.Entities, imaging.OverlayOptions{
		Colors:     a.Colors,
		Stroke:     a.Stroke,
		ShowLabels: showLabels,
	})
}

type entityCropArgs struct {
	Path    string      `json:"path"`
	BBox    entity.BBox `json:"bbox"`
	Padding int         `json:"padding"`
	Scale   float64     `json:"scale"`
}

func (s *Server) handleEntityCrop(args json.RawMessage) (interface{}, error) {
	var a entityCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropEntity(img, entity.Entity{BBox: a.BBox}, a.Padding, a.Scale)
}

// === Page Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageOCRRegionArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func (s *Server) handleImageOCRRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	region, err := entity.NewBBox(a.X1, a.Y1, a.X2, a.Y2)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.deps.OCR.ExtractTextFromRegion(ctx, img, region)
}
