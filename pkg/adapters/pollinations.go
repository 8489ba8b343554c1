package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/genimage-adapter/pkg/domain"
	"github.com/shouni/genimage-adapter/pkg/generator"
)

const (
	// DefaultPollinationsEndpoint は Pollinations 互換 API の既定エンドポイントです。
	DefaultPollinationsEndpoint = "https://api.pollinations.ai/generate"

	pollinationsName = "pollinations"

	defaultPollinationsTimeout = 120 * time.Second
)

// pollinationsRequest は Pollinations 互換 API へ送る JSON 本文です。
type pollinationsRequest struct {
	Prompt     string   `json:"prompt"`
	InitImage  string   `json:"init_image,omitempty"`
	InitImages []string `json:"init_images,omitempty"`
}

// PollinationsTransport は汎用 HTTP エンドポイントへ生成リクエストを送るトランスポートです。
type PollinationsTransport struct {
	endpoint string
	client   httpkit.Doer
}

var _ generator.Transport = (*PollinationsTransport)(nil)

// NewPollinationsTransport は PollinationsTransport を生成します。
// client が nil の場合はタイムアウト 120 秒の httpkit.Client を使います。
// 既定のクライアントはネットワーク検証を行いません。送信は Do の 1 回のみで、再試行はしません。
func NewPollinationsTransport(endpoint string, client httpkit.Doer) (*PollinationsTransport, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultPollinationsEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("endpoint must be an http(s) url: %q", endpoint)
	}
	if client == nil {
		client = httpkit.New(defaultPollinationsTimeout, httpkit.WithSkipNetworkValidation(true))
	}
	return &PollinationsTransport{endpoint: endpoint, client: client}, nil
}

// Name はトランスポート名を返します。
func (t *PollinationsTransport) Name() string { return pollinationsName }

// Send は payload を JSON として POST し、応答を Content-Type に応じて分類します。
func (t *PollinationsTransport) Send(ctx context.Context, apiKey string, payload generator.Payload) (*generator.BackendResponse, error) {
	body, err := json.Marshal(buildPollinationsRequest(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, pollinationsName, err)
	}

	respBody, err := readBody(resp, maxResponseBytes)
	if err != nil {
		return nil, transportError(ctx, pollinationsName, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "Pollinations がエラーを返しました", "status", resp.StatusCode, "body_size", len(respBody))
		return nil, &generator.BackendError{
			Transport: pollinationsName,
			Status:    resp.StatusCode,
			Body:      string(respBody),
		}
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "image/") {
		return generator.NewRawBinaryResponse(respBody, contentType), nil
	}

	if !json.Valid(respBody) {
		return nil, &generator.ResponseFormatError{
			Reason: fmt.Sprintf("expected JSON or image body, got %q", contentType),
			Raw:    string(respBody),
		}
	}
	return generator.NewJSONResponse(respBody), nil
}

// buildPollinationsRequest は種類に応じて init_image / init_images を設定します。
func buildPollinationsRequest(payload generator.Payload) pollinationsRequest {
	req := pollinationsRequest{Prompt: payload.Prompt}

	switch payload.Kind {
	case domain.KindStyleTransform:
		if len(payload.Images) > 0 {
			req.InitImage = encodeImage(payload.Images[0])
		}
	default:
		for _, img := range payload.Images {
			req.InitImages = append(req.InitImages, encodeImage(img))
		}
	}
	return req
}
