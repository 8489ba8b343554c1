package generator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// ErrInvalidRequest は入力が不正な場合に返されます。再試行されません。
var ErrInvalidRequest = errors.New("invalid generation request")

// ConfigurationError は認証情報の欠落など、環境の修正が必要な失敗です。
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// BackendError はバックエンドが失敗を返した、または再試行を使い切ったことを表します。
// Status が 0 の場合は HTTP ステータスを伴わない SDK/ネットワークの失敗です。
type BackendError struct {
	Transport string
	Status    int
	Body      string
	Attempts  int
	Err       error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s backend error", e.Transport)
	if e.Status != 0 {
		msg += fmt.Sprintf(" %d", e.Status)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// Retryable はレート制限 (429) とサーバーエラー (5xx) の場合に true を返します。
func (e *BackendError) Retryable() bool {
	return IsTransientStatus(e.Status)
}

// IsTransientStatus は再試行で解消が見込めるステータスかどうかを判定します。
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// ResponseFormatError は通信は成功したが応答の形を解釈できなかったことを表します。
type ResponseFormatError struct {
	Reason string
	Raw    string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected response format: %s: %s", e.Reason, e.Raw)
}

// ImageMissingError は画像が必須の操作で応答に画像が含まれなかったことを表します。
type ImageMissingError struct {
	Kind         domain.Kind
	FinishReason string
	Text         string
}

func (e *ImageMissingError) Error() string {
	msg := fmt.Sprintf("no image data in %s response", e.Kind)
	if e.FinishReason != "" {
		msg += fmt.Sprintf(" (finish reason: %s)", e.FinishReason)
	}
	if e.Text != "" {
		msg += ": " + e.Text
	}
	return msg
}
