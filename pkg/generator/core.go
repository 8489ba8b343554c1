package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// Adapter は生成リクエストの組み立て、再試行付きの送信、応答の正規化を一括で行うコンポーネントです。
// 構築後は不変で、複数のゴルーチンから同時に利用できます。
type Adapter struct {
	transport   Transport
	credentials CredentialSource
	retry       RetryPolicy
	rules       []ExtractionRule

	// 任意の依存関係
	fetcher            Fetcher
	compressionQuality int

	// テスト用に待ち時間を差し替えるためのタイマー生成関数。nil の場合は実時間で待つ。
	newTimer func() backoff.Timer
}

// Option は Adapter の任意設定です。
type Option func(*Adapter)

// WithRetryPolicy は再試行ポリシーを上書きします。
func WithRetryPolicy(p RetryPolicy) Option {
	return func(a *Adapter) { a.retry = p }
}

// WithExtractionRules は JSON 応答の抽出規則を上書きします。
func WithExtractionRules(rules []ExtractionRule) Option {
	return func(a *Adapter) { a.rules = rules }
}

// WithFetcher は URL 参照の画像をダウンロードしてバイナリ化する Fetcher を設定します。
func WithFetcher(f Fetcher) Option {
	return func(a *Adapter) { a.fetcher = f }
}

// WithInputCompression は送信前に入力画像を JPEG へ再圧縮します。quality が 0 以下なら無効です。
func WithInputCompression(quality int) Option {
	return func(a *Adapter) { a.compressionQuality = quality }
}

// NewAdapter は依存関係を注入して Adapter を初期化します。
func NewAdapter(transport Transport, credentials CredentialSource, opts ...Option) (*Adapter, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credentials is required")
	}

	a := &Adapter{
		transport:   transport,
		credentials: credentials,
		retry:       DefaultRetryPolicy(),
		rules:       DefaultExtractionRules(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", a.retry.MaxAttempts)
	}
	if a.retry.BaseDelay < 0 {
		return nil, fmt.Errorf("base delay must not be negative, got %s", a.retry.BaseDelay)
	}
	if a.compressionQuality > 100 {
		return nil, fmt.Errorf("compression quality must be at most 100, got %d", a.compressionQuality)
	}
	return a, nil
}

// Generate はリクエストを送信内容に変換し、再試行付きで送信して結果を正規化します。
func (a *Adapter) Generate(ctx context.Context, req domain.Request) (*domain.Result, error) {
	// 認証情報の確認はネットワーク呼び出しより前に行い、試行回数には数えない。
	apiKey := a.credentials.APIKey()
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: credentialName(a.credentials), Reason: "credential is missing or empty"}
	}

	payload, err := BuildPayload(req)
	if err != nil {
		return nil, err
	}

	payload.Images = a.prepareInputs(ctx, payload.Images)

	slog.InfoContext(ctx, "画像生成リクエストを送信します",
		"kind", payload.Kind,
		"transport", a.transport.Name(),
		"images", len(payload.Images))

	resp, err := a.sendWithRetry(ctx, apiKey, payload)
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", payload.Kind, err)
	}

	result, err := Normalize(ctx, payload.Kind, resp, a.rules)
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", payload.Kind, err)
	}

	if result.Image != nil && result.Image.IsRemote() {
		resolved := a.resolveRemote(ctx, *result.Image)
		result.Image = &resolved
	}
	return result, nil
}
