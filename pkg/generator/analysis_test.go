package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

func TestExtractFitAnalysis(t *testing.T) {
	t.Run("前後の文章に埋め込まれた JSON を解析できる", func(t *testing.T) {
		text := `Some preamble { "score": 8, "colorFeedback":"good","sizeFeedback":"ok","occasion":"casual","suggestions":"none" } trailing`

		got, ok := ExtractFitAnalysis(text)

		assert.True(t, ok)
		assert.Equal(t, domain.FitAnalysis{
			Score:         8,
			ColorFeedback: "good",
			SizeFeedback:  "ok",
			Occasion:      "casual",
			Suggestions:   "none",
		}, got)
	})

	t.Run("改行をまたぐ JSON も解析できる", func(t *testing.T) {
		text := "Here you go:\n```json\n{\n  \"score\": 6.5,\n  \"occasion\": \"office\"\n}\n```"

		got, ok := ExtractFitAnalysis(text)

		assert.True(t, ok)
		assert.Equal(t, 6.5, got.Score)
		assert.Equal(t, "office", got.Occasion)
		assert.Equal(t, domain.AnalysisUnavailable, got.ColorFeedback, "missing fields keep defaults")
	})

	tests := []struct {
		name string
		text string
	}{
		{"JSON を含まない", "The outfit looks great on you."},
		{"空文字", ""},
		{"壊れた JSON", `result: { "score": 8, "colorFeedback": }`},
		{"型が合わない", `{ "score": "eight" }`},
	}
	for _, tt := range tests {
		t.Run("既定値に劣化する/"+tt.name, func(t *testing.T) {
			got, ok := ExtractFitAnalysis(tt.text)

			assert.False(t, ok)
			assert.Equal(t, domain.DefaultFitAnalysis(), got)
		})
	}
}
