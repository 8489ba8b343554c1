package adapters

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/genimage-adapter/pkg/domain"
	"github.com/shouni/genimage-adapter/pkg/generator"
)

// maxResponseBytes は 1 回の応答で読み込む本文の上限です。
const maxResponseBytes = 32 << 20

// readBody は httpkit で上限付きに本文を読み込み、上限を超えた場合はエラーにします。
// 本文は読み込み後に閉じられます。
func readBody(resp *http.Response, limit int64) ([]byte, error) {
	body, err := httpkit.HandleLimitedResponse(resp, limit+1)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

// mediaType は Content-Type ヘッダーからパラメータを除いた MIME タイプを返します。
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mt
}

// transportError は通信レベルの失敗を再試行されない BackendError に変換します。
// キャンセルはそのまま返し、呼び出し側でキャンセルとして扱えるようにします。
func transportError(ctx context.Context, name string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &generator.BackendError{Transport: name, Err: err}
}

// encodeImage は HTTP バックエンド向けに画像を文字列化します。
// URL 参照は URL のまま、バイナリはプレフィックスなしの base64 にします。
func encodeImage(img domain.Image) string {
	if img.IsRemote() {
		return img.URL
	}
	return img.Base64()
}
