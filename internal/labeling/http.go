package labeling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	docimage "github.com/ironsheep/docparse-mcp/internal/imaging"
)

// Config configures an HTTPLabeler.
type Config struct {
	// Endpoint is the base URL of the inference service, e.g. http://localhost:9000.
	Endpoint string `mapstructure:"endpoint"`
	// APIKey is sent as a bearer token when set.
	APIKey string `mapstructure:"api_key"`
	// Timeout bounds each request. Zero means 60s.
	Timeout time.Duration `mapstructure:"timeout"`
	// SendImage includes the page as a base64 PNG for models that use pixels.
	SendImage bool `mapstructure:"send_image"`
	// Model is reported by Info when the service does not name itself.
	Model string `mapstructure:"model"`
}

// ErrNoEndpoint is returned by NewHTTPLabeler when no endpoint is configured.
var ErrNoEndpoint = errors.New("labeler endpoint not configured")

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

// HTTPLabeler labels pages with a remote token-classification model.
type HTTPLabeler struct {
	cfg    Config
	client *http.Client
}

// NewHTTPLabeler creates a labeler for cfg.Endpoint.
func NewHTTPLabeler(cfg Config) (*HTTPLabeler, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPLabeler{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type predictRequest struct {
	Words  []string `json:"words"`
	Boxes  [][4]int `json:"boxes"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Image  string   `json:"image,omitempty"`
}

type predictResponse struct {
	ID2Label    map[int]string `json:"id2label"`
	Predictions []Prediction   `json:"predictions"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	Model       string `json:"model"`
}

// Label sends the page words to {endpoint}/predict and resolves the answer.
func (l *HTTPLabeler) Label(ctx context.Context, page Page) (*Labels, error) {
	if len(page.Words) == 0 {
		return &Labels{Convention: entity.Flat}, nil
	}

	reqBody, err := l.buildRequest(page)
	if err != nil {
		return nil, fmt.Errorf("building predict request: %w", err)
	}

	var resp predictResponse
	if err := l.do(ctx, http.MethodPost, "/predict", reqBody, &resp); err != nil {
		return nil, err
	}

	winners := vote(resp.Predictions, len(page.Words))
	words := records(page.Words, func(i int) (string, bool) {
		id, ok := winners[i]
		if !ok {
			return "", false
		}
		label, known := resp.ID2Label[id]
		if !known {
			return "O", true
		}
		return label, true
	})

	vocab := vocabulary(resp.ID2Label)
	return &Labels{
		Words:      words,
		Vocabulary: vocab,
		Convention: entity.DetectConvention(vocab),
	}, nil
}

// Info queries {endpoint}/health.
func (l *HTTPLabeler) Info(ctx context.Context) (ModelInfo, error) {
	var resp healthResponse
	if err := l.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return ModelInfo{}, err
	}
	model := resp.Model
	if model == "" {
		model = l.cfg.Model
	}
	return ModelInfo{Loaded: resp.ModelLoaded, Device: resp.Device, Model: model}, nil
}

func (l *HTTPLabeler) buildRequest(page Page) (*predictRequest, error) {
	width, height := pageSize(page)
	req := &predictRequest{
		Words:  make([]string, len(page.Words)),
		Boxes:  make([][4]int, len(page.Words)),
		Width:  width,
		Height: height,
	}
	for i, w := range page.Words {
		req.Words[i] = w.Text
		req.Boxes[i] = docimage.NormalizeBox(w.BBox, width, height)
	}

	if l.cfg.SendImage && page.Image != nil {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, page.Image, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encoding page: %w", err)
		}
		req.Image = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return req, nil
}

// pageSize is the image size, or the extent of the words when no image is attached.
func pageSize(page Page) (int, int) {
	if page.Image != nil {
		b := page.Image.Bounds()
		return b.Dx(), b.Dy()
	}
	var extent image.Point
	for _, w := range page.Words {
		extent.X = max(extent.X, w.BBox.Right)
		extent.Y = max(extent.Y, w.BBox.Bottom)
	}
	return extent.X, extent.Y
}

func (l *HTTPLabeler) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.cfg.Endpoint+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if l.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling labeler %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), maxErrorBody)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Err: statusErr, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return statusErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshaling %s response: %w", path, err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Labeler = (*HTTPLabeler)(nil)
