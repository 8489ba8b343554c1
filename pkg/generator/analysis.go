package generator

import (
	"encoding/json"
	"regexp"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// 最初の "{" から最後の "}" までを改行をまたいで取り出す。
var embeddedJSONPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractFitAnalysis は自由形式のテキストに埋め込まれた JSON を FitAnalysis として解析します。
// JSON が見つからない、または解析できない場合は既定値と false を返します。
// 欠けているフィールドは既定値のまま残ります。
func ExtractFitAnalysis(text string) (domain.FitAnalysis, bool) {
	analysis := domain.DefaultFitAnalysis()

	match := embeddedJSONPattern.FindString(text)
	if match == "" {
		return analysis, false
	}
	if err := json.Unmarshal([]byte(match), &analysis); err != nil {
		return domain.DefaultFitAnalysis(), false
	}
	return analysis, true
}
