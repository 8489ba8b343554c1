package generator

import (
	"encoding/json"
	"time"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

const (
	// DefaultMaxAttempts は 1 回の生成で行う最大試行回数です。
	DefaultMaxAttempts = 4
	// DefaultBaseDelay は指数バックオフの基準待ち時間です。
	DefaultBaseDelay = 800 * time.Millisecond
)

// RetryPolicy は一時的な失敗に対する再試行の上限と待ち時間を定めます。
// i 回目の失敗後の待ち時間は BaseDelay * 2^i で、最後の試行の後には待ちません。
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy は 4 回試行・基準 800ms のポリシーを返します。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Payload はトランスポートへ渡す送信内容です。
// Images は送信用に正規化済み (data URL プレフィックス除去済み) です。
type Payload struct {
	Kind        domain.Kind
	Prompt      string
	Images      []domain.Image
	AspectRatio string
}

// ResponseKind はバックエンド応答の形です。
type ResponseKind int

const (
	ResponseRawBinary ResponseKind = iota
	ResponseJSON
	ResponseParts
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseRawBinary:
		return "raw_binary"
	case ResponseJSON:
		return "json"
	case ResponseParts:
		return "parts"
	default:
		return "unknown"
	}
}

// PartKind は複合応答の各パーツの種類です。
type PartKind int

const (
	PartImage PartKind = iota
	PartText
)

// ResponsePart は複合応答の 1 パーツです。
type ResponsePart struct {
	Kind     PartKind
	Data     []byte
	MIMEType string
	Text     string
}

// BackendResponse は正規化前のバックエンド応答です。
type BackendResponse struct {
	Kind ResponseKind

	// ResponseRawBinary
	Data     []byte
	MIMEType string

	// ResponseJSON
	JSON json.RawMessage

	// ResponseParts
	Parts        []ResponsePart
	FinishReason string
}

// NewRawBinaryResponse は画像バイナリの応答を生成します。
func NewRawBinaryResponse(data []byte, mimeType string) *BackendResponse {
	return &BackendResponse{Kind: ResponseRawBinary, Data: data, MIMEType: mimeType}
}

// NewJSONResponse は JSON 文書の応答を生成します。
func NewJSONResponse(raw []byte) *BackendResponse {
	return &BackendResponse{Kind: ResponseJSON, JSON: json.RawMessage(raw)}
}

// NewPartsResponse はテキストと画像が混在する応答を生成します。
func NewPartsResponse(parts []ResponsePart, finishReason string) *BackendResponse {
	return &BackendResponse{Kind: ResponseParts, Parts: parts, FinishReason: finishReason}
}
