package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	googlegenai "google.golang.org/genai"

	"github.com/sanosuguru/sportup/internal/config"
)

var (
	ErrUpstream      = errors.New("生成AIサービスの呼び出しに失敗しました")
	ErrEmptyResponse = errors.New("生成AIサービスの応答が空です")
)

// Client はGemini API の generateContent を呼び出す
type Client struct {
	models  *googlegenai.Models
	model   string
	limiter *rate.Limiter
}

// NewClient はClientを作成する
// RPS が0以下の場合はレート制限しない
func NewClient(ctx context.Context, cfg *config.SuggestionConfig) (*Client, error) {
	sdk, err := googlegenai.NewClient(ctx, &googlegenai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    googlegenai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: googlegenai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.Endpoint, "/") + "/",
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("生成AIクライアントの初期化に失敗しました: %w", err)
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		models:  sdk.Models,
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// GenerateJSON はプロンプトを送信し、JSONの応答を out にデコードする
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("レート制限待機中に中断されました: %w", err)
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, googlegenai.Text(prompt), &googlegenai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("%w: elapsed=%s: %w", ErrUpstream, time.Since(start), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return fmt.Errorf("%w: JSONとして解釈できません: %w", ErrUpstream, err)
	}
	return nil
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出す
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
