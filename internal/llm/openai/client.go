package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"billextract/constants"
	"billextract/internal/engine"
	"billextract/internal/llm"
)

// ExtractPages implements llm.PageExtractor against the chat-completions
// vision API. Pages are processed strictly in order; a page whose call or
// payload fails degrades to an empty "Bill Detail" page so the document as a
// whole still reconciles.
func (c *Client) ExtractPages(ctx context.Context, pages []llm.PageImage) (llm.ExtractResult, error) {
	res := llm.ExtractResult{Pages: make([]engine.RawPage, 0, len(pages))}

	for i, pg := range pages {
		if i > 0 && c.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(c.cfg.PageDelay):
			}
		}

		page, usage, err := c.extractPage(ctx, pg)
		res.Usage.Add(usage)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			c.log.Error("llm.extract.page_failed", "page_no", pg.PageNo, "error", err)
			page = engine.RawPage{PageNo: pg.PageNo, PageType: string(constants.PageTypeBillDetail)}
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}

func (c *Client) extractPage(ctx context.Context, pg llm.PageImage) (engine.RawPage, llm.TokenUsage, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.model(),
		"page_no", pg.PageNo,
		"image_bytes", len(pg.Data),
	)

	mimeType := pg.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(pg.Data)

	body := map[string]any{
		"model":       c.model(),
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": llm.BuildUserPrompt(pg.PageNo)},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
		},
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return engine.RawPage{}, llm.TokenUsage{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return engine.RawPage{}, llm.TokenUsage{}, fmt.Errorf("decode chat response: %w", err)
	}
	usage := llm.TokenUsage{
		TotalTokens:  cc.Usage.TotalTokens,
		InputTokens:  cc.Usage.PromptTokens,
		OutputTokens: cc.Usage.CompletionTokens,
	}
	if len(cc.Choices) == 0 {
		return engine.RawPage{}, usage, fmt.Errorf("no choices in chat response")
	}

	page, err := llm.DecodePage(cc.Choices[0].Message.Content, pg.PageNo, c.log)
	if err != nil {
		c.log.Error("llm.extract.payload_error",
			"req_id", rid, "page_no", pg.PageNo, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return engine.RawPage{}, usage, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"page_no", page.PageNo,
		"page_type", page.PageType,
		"items", len(page.Items),
		"tokens", usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return page, usage, nil
}

func (c *Client) model() string {
	if c.cfg.UseAzure {
		return c.cfg.AzureDeployment
	}
	return c.cfg.Model
}

func (c *Client) endpoint() string {
	if c.cfg.UseAzure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			c.cfg.AzureEndpoint, c.cfg.AzureDeployment, c.cfg.AzureAPIVersion)
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

func (c *Client) post(ctx context.Context, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UseAzure {
		req.Header.Set("api-key", c.cfg.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
