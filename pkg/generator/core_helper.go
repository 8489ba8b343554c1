package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/genimage-adapter/pkg/domain"
	"github.com/shouni/genimage-adapter/pkg/imgutil"
)

// prepareInputs は URL 参照の入力をダウンロードし、設定があれば JPEG に再圧縮します。
// どちらも失敗した場合は元の画像のまま送信します。
func (a *Adapter) prepareInputs(ctx context.Context, images []domain.Image) []domain.Image {
	out := make([]domain.Image, len(images))
	for i, img := range images {
		if img.IsRemote() {
			img = a.resolveRemote(ctx, img)
		}
		if a.compressionQuality > 0 && len(img.Data) > 0 {
			img = a.compressInput(ctx, i, img)
		}
		out[i] = img
	}
	return out
}

// compressInput はデコード可能な JPEG 以外の画像を再圧縮します。
func (a *Adapter) compressInput(ctx context.Context, index int, img domain.Image) domain.Image {
	format, err := imgutil.DetectFormat(img.Data)
	if err != nil || format == "jpeg" {
		return img
	}
	data, mimeType, err := imgutil.CompressIfSmaller(img.Data, img.MIMEType, a.compressionQuality)
	if err != nil {
		slog.WarnContext(ctx, "入力画像の圧縮に失敗しました。元の画像で続行します", "index", index, "format", format, "error", err)
		return img
	}
	return domain.Image{Data: data, MIMEType: mimeType, URL: img.URL}
}

// resolveRemote は Fetcher が設定されている場合に URL 参照をバイナリへ変換します。
func (a *Adapter) resolveRemote(ctx context.Context, img domain.Image) domain.Image {
	if a.fetcher == nil {
		return img
	}

	data, err := a.fetchImageData(ctx, img.URL)
	if err != nil {
		slog.WarnContext(ctx, "画像のダウンロードに失敗しました。URL参照のまま続行します", "url", img.URL, "error", err)
		return img
	}

	mimeType := domain.DetectMIMEType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.WarnContext(ctx, "MIMEタイプが画像ではないためURL参照のまま続行します", "url", img.URL, "detected_mime_type", mimeType)
		return img
	}
	return domain.Image{Data: data, MIMEType: mimeType, URL: img.URL}
}

func (a *Adapter) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return a.fetcher.FetchBytes(ctx, rawURL)
}
