package generator

import (
	"context"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// Transport はバックエンドへの 1 回分の送信を担当する戦略です。
// 再試行の対象にしたい失敗は *BackendError の Status で表現します。
type Transport interface {
	// Name はログ出力用のトランスポート名を返します。
	Name() string
	// Send は apiKey を使って payload を送信し、正規化前の応答を返します。
	Send(ctx context.Context, apiKey string, payload Payload) (*BackendResponse, error)
}

// CredentialSource は呼び出しのたびに認証情報を返します。
// 起動時にキャッシュせず、毎回読み出すことでキーの差し替えに追従します。
type CredentialSource interface {
	APIKey() string
}

// Fetcher は URL から画像データを取得するためのインターフェースです。
// go-http-kit の httpkit.ClientInterface はこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageGenerator はビジネスロジック層が利用する統合窓口です。
type ImageGenerator interface {
	Generate(ctx context.Context, req domain.Request) (*domain.Result, error)
	GenerateFromText(ctx context.Context, prompt, style, aspect string) (*domain.Result, error)
	TransformStyle(ctx context.Context, source domain.Image, style, refinePrompt string) (*domain.Result, error)
	FuseImages(ctx context.Context, imageA, imageB domain.Image) (*domain.Result, error)
	RunFitCheck(ctx context.Context, person, outfit domain.Image) (*domain.Result, error)
}
