package domain

// AnalysisUnavailable は分析が得られなかった場合のフィードバック文言です。
const AnalysisUnavailable = "Analysis unavailable"

// Result は生成結果です。Analysis は FitCheck の場合のみ設定されます。
// FitCheck では Image が nil の場合があるため、呼び出し側で確認が必要です。
type Result struct {
	Image    *Image
	Analysis *FitAnalysis
}

// FitAnalysis は着こなしの分析結果です。
type FitAnalysis struct {
	Score         float64 `json:"score"`
	ColorFeedback string  `json:"colorFeedback"`
	SizeFeedback  string  `json:"sizeFeedback"`
	Occasion      string  `json:"occasion"`
	Suggestions   string  `json:"suggestions"`
}

// DefaultFitAnalysis は構造化出力が得られなかった場合の既定値を返します。
func DefaultFitAnalysis() FitAnalysis {
	return FitAnalysis{
		Score:         0,
		ColorFeedback: AnalysisUnavailable,
		SizeFeedback:  AnalysisUnavailable,
		Occasion:      AnalysisUnavailable,
		Suggestions:   AnalysisUnavailable,
	}
}
