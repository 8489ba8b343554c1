package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"google.golang.org/genai"

	"github.com/shouni/genimage-adapter/pkg/generator"
)

const (
	// DefaultGeminiModel は画像生成に使う既定のモデル名です。
	DefaultGeminiModel = "gemini-2.5-flash-image"

	geminiName = "gemini"
)

// "16:9" のような比率表記のみ ImageConfig に渡す。
var aspectRatioPattern = regexp.MustCompile(`^\d+:\d+$`)

// ContentGenerator は genai の Models.GenerateContent を抽象化するインターフェースです。
// *genai.Models はこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory は呼び出し時の API キーから ContentGenerator を生成します。
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// NewGenAIClientFactory は Gemini API バックエンドの genai クライアントを生成するファクトリを返します。
// httpClient は nil でも構いません。
func NewGenAIClientFactory(httpClient *http.Client) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	}
}

// GeminiTransport は genai SDK 経由で画像生成を行うトランスポートです。
type GeminiTransport struct {
	model     string
	newClient ClientFactory
}

var _ generator.Transport = (*GeminiTransport)(nil)

// NewGeminiTransport は GeminiTransport を生成します。
func NewGeminiTransport(model string, factory ClientFactory) (*GeminiTransport, error) {
	if factory == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiTransport{model: model, newClient: factory}, nil
}

// Name はトランスポート名を返します。
func (t *GeminiTransport) Name() string { return geminiName }

// Send はテキストと画像のパーツを 1 回の GenerateContent で送信し、応答パーツを返します。
func (t *GeminiTransport) Send(ctx context.Context, apiKey string, payload generator.Payload) (*generator.BackendResponse, error) {
	client, err := t.newClient(ctx, apiKey)
	if err != nil {
		return nil, &generator.BackendError{Transport: geminiName, Err: fmt.Errorf("failed to create genai client: %w", err)}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(buildParts(payload), genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, t.model, contents, buildConfig(payload))
	if err != nil {
		return nil, classifySDKError(ctx, err)
	}

	return convertResponse(ctx, resp), nil
}

// buildParts はプロンプトを先頭に、入力画像を順に並べたパーツを組み立てます。
func buildParts(payload generator.Payload) []*genai.Part {
	parts := []*genai.Part{genai.NewPartFromText(payload.Prompt)}
	for _, img := range payload.Images {
		if img.IsRemote() {
			parts = append(parts, &genai.Part{FileData: &genai.FileData{FileURI: img.URL, MIMEType: img.MIMEType}})
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}})
	}
	return parts
}

func buildConfig(payload generator.Payload) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if aspectRatioPattern.MatchString(payload.AspectRatio) {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: payload.AspectRatio}
	}
	return config
}

// convertResponse は最初の候補のパーツを generator.ResponsePart に変換します。
func convertResponse(ctx context.Context, resp *genai.GenerateContentResponse) *generator.BackendResponse {
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "NO_CANDIDATES"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		slog.WarnContext(ctx, "Geminiから候補が返されませんでした", "reason", reason)
		return generator.NewPartsResponse(nil, reason)
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	var parts []generator.ResponsePart
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part == nil || part.Thought:
				continue
			case part.InlineData != nil && len(part.InlineData.Data) > 0:
				parts = append(parts, generator.ResponsePart{
					Kind:     generator.PartImage,
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				})
			case part.Text != "":
				parts = append(parts, generator.ResponsePart{Kind: generator.PartText, Text: part.Text})
			}
		}
	}
	return generator.NewPartsResponse(parts, string(candidate.FinishReason))
}

// classifySDKError は genai.APIError のコードを BackendError のステータスに写します。
// それ以外の失敗はステータスなしの BackendError になり、再試行されません。
func classifySDKError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generator.BackendError{Transport: geminiName, Status: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &generator.BackendError{Transport: geminiName, Status: apiErrPtr.Code, Body: apiErrPtr.Message, Err: err}
	}
	return transportError(ctx, geminiName, err)
}
