package domain

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DefaultMIMEType は MIME タイプを判別できなかった画像に割り当てる既定値です。
const DefaultMIMEType = "image/png"

const dataURLPrefix = "data:"

// ErrEmptyImage は画像データも URL も持たない Image を表します。
var ErrEmptyImage = errors.New("image has neither data nor url")

// Image はアダプター内部で扱う画像です。
// バイナリと MIME タイプの組を基本とし、バックエンドが URL で応答した場合のみ URL を保持します。
type Image struct {
	Data     []byte
	MIMEType string
	URL      string
}

// NewImage はバイト列から Image を生成します。mimeType が空の場合は内容から判別します。
func NewImage(data []byte, mimeType string) Image {
	if mimeType == "" {
		mimeType = DetectMIMEType(data)
	}
	return Image{Data: data, MIMEType: mimeType}
}

// NewRemoteImage は URL 参照の Image を生成します。MIME タイプは拡張子から推定します。
func NewRemoteImage(rawURL string) Image {
	return Image{URL: rawURL, MIMEType: mimeFromURL(rawURL)}
}

// IsEmpty は画像データも URL も持たない場合に true を返します。
func (i Image) IsEmpty() bool {
	return len(i.Data) == 0 && i.URL == ""
}

// IsRemote はバイナリを持たず URL 参照のみの場合に true を返します。
func (i Image) IsRemote() bool {
	return len(i.Data) == 0 && i.URL != ""
}

// Base64 はプレフィックスなしの base64 文字列を返します。
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL は data URL 形式の文字列を返します。URL 参照の場合は URL をそのまま返します。
func (i Image) DataURL() string {
	if i.IsRemote() {
		return i.URL
	}
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, i.Base64())
}

// ParseImage は境界で受け取った文字列 (data URL, base64, http(s) URL) を Image に変換します。
func ParseImage(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrEmptyImage
	}

	if strings.HasPrefix(s, dataURLPrefix) {
		return ParseDataURL(s)
	}
	if isHTTPURL(s) {
		return NewRemoteImage(s), nil
	}

	data, err := DecodeBase64(s)
	if err != nil {
		return Image{}, fmt.Errorf("invalid base64 image: %w", err)
	}
	return NewImage(data, imageMIMEOrDefault(data)), nil
}

// ParseDataURL は "data:<mime>;base64,<payload>" を分解して Image を返します。
func ParseDataURL(s string) (Image, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return Image{}, fmt.Errorf("not a data url")
	}
	header, payload, ok := strings.Cut(s[len(dataURLPrefix):], ",")
	if !ok {
		return Image{}, fmt.Errorf("malformed data url: missing comma")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Image{}, fmt.Errorf("unsupported data url encoding: %q", header)
	}

	data, err := DecodeBase64(payload)
	if err != nil {
		return Image{}, fmt.Errorf("invalid data url payload: %w", err)
	}
	if mimeType == "" {
		mimeType = imageMIMEOrDefault(data)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}

// StripDataURL はバイト列自体が data URL 文字列になっている画像をバイナリに戻します。
// 二重エンコードを防ぐため、送信前に必ず通します。
func StripDataURL(img Image) (Image, error) {
	if !bytes.HasPrefix(img.Data, []byte(dataURLPrefix)) {
		return img, nil
	}
	decoded, err := ParseDataURL(string(img.Data))
	if err != nil {
		return Image{}, err
	}
	decoded.URL = img.URL
	return decoded, nil
}

// DecodeBase64 は標準と URL セーフの base64 を、パディングの有無を問わず受け付けます。
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	unpadded := strings.TrimRight(s, "=")
	data, err := base64.RawStdEncoding.DecodeString(unpadded)
	if err == nil {
		return data, nil
	}
	if strings.ContainsAny(unpadded, "-_") {
		return base64.RawURLEncoding.DecodeString(unpadded)
	}
	return nil, err
}

// DetectMIMEType はバイト列から MIME タイプを判別します。
func DetectMIMEType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}

func imageMIMEOrDefault(data []byte) string {
	if mimeType := DetectMIMEType(data); strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return DefaultMIMEType
}

func mimeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultMIMEType
	}
	if mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return DefaultMIMEType
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
