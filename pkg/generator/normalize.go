package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// ExtractionRule は JSON 応答から画像文字列を取り出す名前付きの規則です。
// 規則は順に評価され、最初に一致したものが採用されます。
type ExtractionRule struct {
	Name string
	// Extract は一致した場合に画像を表す文字列と true を返します。
	Extract func(doc map[string]any) (string, bool)
	// BareBase64MIME が空でない場合、一致した値はプレフィックスなしの base64 として扱い、
	// この MIME タイプを付与します。
	BareBase64MIME string
}

// DefaultExtractionRules は既知の応答形に対応する規則を優先順に返します。
//
//	{"image": "..."} / {"images": ["..."]} / {"data": {"image": "..."}} / {"base64": "..."} / {"url": "..."}
func DefaultExtractionRules() []ExtractionRule {
	return []ExtractionRule{
		{Name: "image", Extract: stringField("image")},
		{Name: "images[0]", Extract: firstArrayElement("images")},
		{Name: "data.image", Extract: nestedStringField("data", "image")},
		{Name: "base64", Extract: stringField("base64"), BareBase64MIME: domain.DefaultMIMEType},
		{Name: "url", Extract: stringField("url")},
	}
}

func stringField(key string) func(map[string]any) (string, bool) {
	return func(doc map[string]any) (string, bool) {
		s, ok := doc[key].(string)
		return s, ok && s != ""
	}
}

func firstArrayElement(key string) func(map[string]any) (string, bool) {
	return func(doc map[string]any) (string, bool) {
		arr, ok := doc[key].([]any)
		if !ok || len(arr) == 0 {
			return "", false
		}
		s, ok := arr[0].(string)
		return s, ok && s != ""
	}
}

func nestedStringField(parent, key string) func(map[string]any) (string, bool) {
	return func(doc map[string]any) (string, bool) {
		nested, ok := doc[parent].(map[string]any)
		if !ok {
			return "", false
		}
		return stringField(key)(nested)
	}
}

// ExtractImageFromJSON は規則を順に適用し、最初に一致した値を Image に変換します。
// どの規則にも一致しない場合は元の JSON を含む *ResponseFormatError を返します。
func ExtractImageFromJSON(raw []byte, rules []ExtractionRule) (domain.Image, string, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Image{}, "", &ResponseFormatError{Reason: "response is not a JSON object", Raw: string(raw)}
	}

	for _, rule := range rules {
		value, ok := rule.Extract(doc)
		if !ok {
			continue
		}
		img, err := imageFromString(value, rule.BareBase64MIME)
		if err != nil {
			return domain.Image{}, rule.Name, &ResponseFormatError{
				Reason: fmt.Sprintf("field %s: %v", rule.Name, err),
				Raw:    string(raw),
			}
		}
		return img, rule.Name, nil
	}

	return domain.Image{}, "", &ResponseFormatError{Reason: "no known image field", Raw: string(raw)}
}

func imageFromString(value, bareMIME string) (domain.Image, error) {
	if bareMIME != "" && !strings.HasPrefix(value, "data:") {
		data, err := domain.DecodeBase64(value)
		if err != nil {
			return domain.Image{}, err
		}
		return domain.NewImage(data, bareMIME), nil
	}
	img, err := domain.ParseImage(value)
	if err != nil && isPathReference(value) {
		// "/static/out.png" のようなパスは解決せず参照として返す。
		return domain.NewRemoteImage(value), nil
	}
	return img, err
}

func isPathReference(value string) bool {
	return strings.HasPrefix(value, "/") || strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../")
}

// Normalize はバックエンド応答を種類に応じて domain.Result に変換します。
func Normalize(ctx context.Context, kind domain.Kind, resp *BackendResponse, rules []ExtractionRule) (*domain.Result, error) {
	if resp == nil {
		return nil, &ResponseFormatError{Reason: "empty backend response"}
	}

	switch resp.Kind {
	case ResponseRawBinary:
		if len(resp.Data) == 0 {
			if !kind.ProducesAnalysis() {
				return nil, &ImageMissingError{Kind: kind}
			}
			slog.WarnContext(ctx, "バイナリ応答が空です。分析結果のみ返します", "kind", kind)
			return withAnalysis(ctx, kind, &domain.Result{}, "", false), nil
		}
		img := domain.NewImage(resp.Data, resp.MIMEType)
		return withAnalysis(ctx, kind, &domain.Result{Image: &img}, "", false), nil

	case ResponseJSON:
		img, rule, err := ExtractImageFromJSON(resp.JSON, rules)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "JSON応答から画像を抽出しました", "rule", rule, "remote", img.IsRemote())
		return withAnalysis(ctx, kind, &domain.Result{Image: &img}, "", false), nil

	case ResponseParts:
		return normalizeParts(ctx, kind, resp)

	default:
		return nil, &ResponseFormatError{Reason: fmt.Sprintf("unknown response kind %d", resp.Kind)}
	}
}

// normalizeParts は最初の画像パーツと、分析を伴う種類では最初のテキストパーツを取り出します。
func normalizeParts(ctx context.Context, kind domain.Kind, resp *BackendResponse) (*domain.Result, error) {
	var (
		image    *domain.Image
		text     string
		haveText bool
	)
	for _, part := range resp.Parts {
		switch {
		case part.Kind == PartImage && image == nil && len(part.Data) > 0:
			img := domain.NewImage(part.Data, part.MIMEType)
			image = &img
		case part.Kind == PartText && !haveText:
			text, haveText = part.Text, true
		}
	}

	if image == nil && !kind.ProducesAnalysis() {
		return nil, &ImageMissingError{Kind: kind, FinishReason: resp.FinishReason, Text: text}
	}
	if image == nil {
		slog.WarnContext(ctx, "応答に画像が含まれていません。分析結果のみ返します", "kind", kind, "finish_reason", resp.FinishReason)
	}

	return withAnalysis(ctx, kind, &domain.Result{Image: image}, text, haveText), nil
}

// withAnalysis は分析を伴う種類の場合に Analysis を設定します。解析の失敗は既定値に劣化させ、ログのみ残します。
func withAnalysis(ctx context.Context, kind domain.Kind, result *domain.Result, text string, haveText bool) *domain.Result {
	if !kind.ProducesAnalysis() {
		return result
	}

	analysis := domain.DefaultFitAnalysis()
	if !haveText {
		slog.WarnContext(ctx, "分析テキストが応答にありません。既定値を使用します", "kind", kind)
	} else if parsed, ok := ExtractFitAnalysis(text); ok {
		analysis = parsed
	} else {
		slog.WarnContext(ctx, "分析テキストから JSON を解析できませんでした。既定値を使用します", "kind", kind, "text", truncate(text, 200))
	}
	result.Analysis = &analysis
	return result
}

// truncate は s を n バイト以内のルーン境界で切り詰めます。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
