package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// JPEGMIMEType は圧縮後の MIME タイプです。
const JPEGMIMEType = "image/jpeg"

// CompressToJPEG は画像データ（PNG, GIF, JPEG, WebP）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectFormat はヘッダーのみをデコードして画像フォーマット名 (png, jpeg, gif, webp) を返します。
func DetectFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image format: %w", err)
	}
	return format, nil
}

// CompressIfSmaller は JPEG へ再エンコードし、元データより小さくなった場合のみ採用します。
// 採用しなかった場合は元のデータと MIME タイプをそのまま返します。
func CompressIfSmaller(data []byte, mimeType string, quality int) ([]byte, string, error) {
	compressed, err := CompressToJPEG(data, quality)
	if err != nil {
		return data, mimeType, err
	}
	if len(compressed) >= len(data) {
		return data, mimeType, nil
	}
	return compressed, JPEGMIMEType, nil
}
