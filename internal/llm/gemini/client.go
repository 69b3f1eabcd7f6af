package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lassa-tracker/internal/common"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey  string // required
	BaseURL string // default https://generativelanguage.googleapis.com/v1beta
	Model   string // e.g. "gemini-2.0-flash"
	Timeout time.Duration
}

// Client implements llm.TableExtractor against the Gemini
// generateContent REST endpoint. The instruction plus the enhanced
// table image go up as one user turn; JSON comes back as text and is
// schema-validated locally before decoding.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ExtractTable submits one enhanced image for structured extraction.
// Every failure mode of the call (transport, non-2xx, empty response,
// schema mismatch) wraps common.ErrExtractionCall so the orchestrator
// can treat them uniformly as a failed attempt.
func (c *Client) ExtractTable(ctx context.Context, req llm.ExtractRequest) ([]llm.TableRow, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	schema := llm.BuildTableJSONSchema()
	instruction := llm.AppendInvalidHints(req.Instruction, req.PriorHints)
	instruction += "\n" + mustJSON(schema)

	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []part{
				{Text: instruction},
				{InlineData: &inlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(req.ImagePNG),
				}},
			},
		}},
		"generationConfig": map[string]any{
			"temperature":      0,
			"responseMimeType": "application/json",
		},
	}

	c.log.Info("llm.extract.start",
		"req_id", rid, "model", c.cfg.Model,
		"image_bytes", len(req.ImagePNG), "prior_hints", len(req.PriorHints))

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, fmt.Errorf("%w: %v", common.ErrExtractionCall, err)
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, raw, fmt.Errorf("%w: decode response: %v", common.ErrExtractionCall, err)
	}
	if len(gr.Candidates) == 0 {
		c.log.Error("llm.extract.no_candidates", "req_id", rid, "raw", string(raw))
		return nil, raw, fmt.Errorf("%w: no candidates in response", common.ErrExtractionCall)
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	content := []byte(stripFences(sb.String()))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content))
		return nil, content, fmt.Errorf("%w: %v", common.ErrExtractionCall, err)
	}

	var rows []llm.TableRow
	if err := json.Unmarshal(content, &rows); err != nil {
		c.log.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, content, fmt.Errorf("%w: unmarshal rows: %v", common.ErrExtractionCall, err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid, "rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds())
	return rows, content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// stripFences drops a markdown code fence if the model wrapped its
// JSON despite the response mime type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
