package generator

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

func TestExtractImageFromJSON(t *testing.T) {
	rules := DefaultExtractionRules()

	tests := []struct {
		name     string
		body     string
		wantRule string
		want     domain.Image
	}{
		{
			name:     "image フィールドの URL",
			body:     `{"image":"https://x/y.png"}`,
			wantRule: "image",
			want:     domain.Image{URL: "https://x/y.png", MIMEType: "image/png"},
		},
		{
			name:     "images 配列の先頭",
			body:     `{"images":["https://x/y.png","https://x/z.png"]}`,
			wantRule: "images[0]",
			want:     domain.Image{URL: "https://x/y.png", MIMEType: "image/png"},
		},
		{
			name:     "data.image の data URL",
			body:     `{"data":{"image":"data:image/png;base64,AAA="}}`,
			wantRule: "data.image",
			want:     domain.Image{Data: []byte{0, 0}, MIMEType: "image/png"},
		},
		{
			name:     "プレフィックスなしの base64",
			body:     `{"base64":"AAA="}`,
			wantRule: "base64",
			want:     domain.Image{Data: []byte{0, 0}, MIMEType: "image/png"},
		},
		{
			name:     "url フィールド",
			body:     `{"url":"https://x/y.jpg"}`,
			wantRule: "url",
			want:     domain.Image{URL: "https://x/y.jpg", MIMEType: "image/jpeg"},
		},
		{
			name:     "URL セーフ base64",
			body:     `{"base64":"_-8="}`,
			wantRule: "base64",
			want:     domain.Image{Data: []byte{0xff, 0xef}, MIMEType: "image/png"},
		},
		{
			name:     "パス形式の image は参照として返す",
			body:     `{"image":"/static/out.png"}`,
			wantRule: "image",
			want:     domain.Image{URL: "/static/out.png", MIMEType: "image/png"},
		},
		{
			name:     "相対パスの url は参照として返す",
			body:     `{"url":"./out.jpg"}`,
			wantRule: "url",
			want:     domain.Image{URL: "./out.jpg", MIMEType: "image/jpeg"},
		},
		{
			name:     "/ で始まる base64 はパスとみなさない",
			body:     `{"image":"/9j/"}`,
			wantRule: "image",
			want:     domain.Image{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"},
		},
		{
			name:     "複数一致する場合は先の規則が優先される",
			body:     `{"base64":"AAA=","image":"https://x/first.png"}`,
			wantRule: "image",
			want:     domain.Image{URL: "https://x/first.png", MIMEType: "image/png"},
		},
		{
			name:     "空文字や型違いは一致とみなさない",
			body:     `{"image":"","images":[],"data":{"image":42},"base64":"AAA="}`,
			wantRule: "base64",
			want:     domain.Image{Data: []byte{0, 0}, MIMEType: "image/png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, rule, err := ExtractImageFromJSON([]byte(tt.body), rules)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRule, rule)
			assert.Equal(t, tt.want, img)
		})
	}

	t.Run("data URL は往復で元の文字列に戻る", func(t *testing.T) {
		img, _, err := ExtractImageFromJSON([]byte(`{"data":{"image":"data:image/png;base64,AAA="}}`), rules)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AAA=", img.DataURL())
	})

	t.Run("base64 フィールドは image/png の data URL になる", func(t *testing.T) {
		img, _, err := ExtractImageFromJSON([]byte(`{"base64":"AAA="}`), rules)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AAA=", img.DataURL())
	})

	errorCases := []struct {
		name string
		body string
	}{
		{"未知の形", `{"foo":"bar"}`},
		{"オブジェクトでない", `["https://x/y.png"]`},
		{"JSON でない", `<html>oops</html>`},
		{"base64 として不正", `{"base64":"%%%"}`},
	}
	for _, tt := range errorCases {
		t.Run("ResponseFormatError/"+tt.name, func(t *testing.T) {
			_, _, err := ExtractImageFromJSON([]byte(tt.body), rules)

			var formatErr *ResponseFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.body, formatErr.Raw, "the raw JSON is kept for diagnosis")
		})
	}
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()
	rules := DefaultExtractionRules()

	t.Run("バイナリ応答は宣言された MIME タイプで包む", func(t *testing.T) {
		res, err := Normalize(ctx, domain.KindTextToImage, NewRawBinaryResponse([]byte("img"), "image/jpeg"), rules)

		require.NoError(t, err)
		assert.Equal(t, &domain.Image{Data: []byte("img"), MIMEType: "image/jpeg"}, res.Image)
		assert.Nil(t, res.Analysis)
	})

	t.Run("複合応答は最初の画像パーツを採用する", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{
			{Kind: PartText, Text: "here it is"},
			{Kind: PartImage, Data: []byte("first"), MIMEType: "image/png"},
			{Kind: PartImage, Data: []byte("second"), MIMEType: "image/png"},
		}, "STOP")

		res, err := Normalize(ctx, domain.KindFuse, resp, rules)

		require.NoError(t, err)
		assert.Equal(t, []byte("first"), res.Image.Data)
		assert.Nil(t, res.Analysis, "analysis is only produced for fit checks")
	})

	t.Run("画像が必須の操作で画像がない場合は ImageMissingError", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{{Kind: PartText, Text: "I cannot do that"}}, "SAFETY")

		_, err := Normalize(ctx, domain.KindStyleTransform, resp, rules)

		var missing *ImageMissingError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, domain.KindStyleTransform, missing.Kind)
		assert.Equal(t, "SAFETY", missing.FinishReason)
		assert.Equal(t, "I cannot do that", missing.Text)
	})

	t.Run("空のバイナリ応答は ImageMissingError", func(t *testing.T) {
		_, err := Normalize(ctx, domain.KindTextToImage, NewRawBinaryResponse(nil, "image/png"), rules)

		var missing *ImageMissingError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("nil 応答は ResponseFormatError", func(t *testing.T) {
		_, err := Normalize(ctx, domain.KindTextToImage, nil, rules)

		var formatErr *ResponseFormatError
		assert.ErrorAs(t, err, &formatErr)
	})
}

func TestNormalize_FitCheck(t *testing.T) {
	ctx := context.Background()
	rules := DefaultExtractionRules()
	analysisText := `Some preamble { "score": 8, "colorFeedback":"good","sizeFeedback":"ok","occasion":"casual","suggestions":"none" } trailing`

	t.Run("テキストパーツから分析を取り出す", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{
			{Kind: PartImage, Data: []byte("vis"), MIMEType: "image/png"},
			{Kind: PartText, Text: analysisText},
			{Kind: PartText, Text: `{"score": 1}`},
		}, "STOP")

		res, err := Normalize(ctx, domain.KindFitCheck, resp, rules)

		require.NoError(t, err)
		require.NotNil(t, res.Analysis)
		assert.Equal(t, 8.0, res.Analysis.Score, "the first text part wins")
		assert.Equal(t, "casual", res.Analysis.Occasion)
		assert.Equal(t, []byte("vis"), res.Image.Data)
	})

	t.Run("画像がなくても失敗せず Image は nil", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{{Kind: PartText, Text: analysisText}}, "STOP")

		res, err := Normalize(ctx, domain.KindFitCheck, resp, rules)

		require.NoError(t, err)
		assert.Nil(t, res.Image)
		assert.Equal(t, 8.0, res.Analysis.Score)
	})

	t.Run("JSON を含まないテキストは既定値", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{
			{Kind: PartText, Text: "Looks nice!"},
			{Kind: PartImage, Data: []byte("vis"), MIMEType: "image/png"},
		}, "STOP")

		res, err := Normalize(ctx, domain.KindFitCheck, resp, rules)

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFitAnalysis(), *res.Analysis)
	})

	t.Run("テキストパーツがない場合は既定値", func(t *testing.T) {
		resp := NewPartsResponse([]ResponsePart{{Kind: PartImage, Data: []byte("vis"), MIMEType: "image/png"}}, "STOP")

		res, err := Normalize(ctx, domain.KindFitCheck, resp, rules)

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFitAnalysis(), *res.Analysis)
	})

	t.Run("空のバイナリ応答でも失敗せず分析のみ返す", func(t *testing.T) {
		res, err := Normalize(ctx, domain.KindFitCheck, NewRawBinaryResponse(nil, "image/png"), rules)

		require.NoError(t, err)
		assert.Nil(t, res.Image)
		require.NotNil(t, res.Analysis)
		assert.Equal(t, domain.DefaultFitAnalysis(), *res.Analysis)
	})

	t.Run("HTTP のバイナリ応答でも既定の分析を付ける", func(t *testing.T) {
		res, err := Normalize(ctx, domain.KindFitCheck, NewRawBinaryResponse([]byte("img"), "image/png"), rules)

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFitAnalysis(), *res.Analysis)
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"上限以内はそのまま", "abc", 5, "abc"},
		{"ASCII はバイト数で切る", "abcdef", 3, "abc..."},
		{"マルチバイトはルーン境界まで戻す", "あいうえお", 4, "あ..."},
		{"境界ちょうどはそのまま切る", "あいうえお", 6, "あい..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)

			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
