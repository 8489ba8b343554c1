package domain

// Kind は生成リクエストの種類です。
type Kind string

const (
	KindTextToImage    Kind = "text_to_image"
	KindStyleTransform Kind = "style_transform"
	KindFuse           Kind = "fuse"
	KindFitCheck       Kind = "fit_check"
)

// Request は 4 種類の生成リクエストを表すタグ付き共用体です。
type Request interface {
	Kind() Kind
	isRequest()
}

// TextToImage はテキストからの画像生成要求です。
type TextToImage struct {
	Prompt string
	Style  string
	Aspect string
}

// StyleTransform は既存画像の画風変換要求です。RefinePrompt は任意です。
type StyleTransform struct {
	Source       Image
	Style        string
	RefinePrompt string
}

// Fuse は 2 枚の画像の合成要求です。
// ImageA の被写体と ImageB の背景・質感を組み合わせます。
type Fuse struct {
	ImageA Image
	ImageB Image
}

// FitCheck は人物画像と服装画像の比較要求です。分析結果を伴う唯一の要求です。
type FitCheck struct {
	Person Image
	Outfit Image
}

func (TextToImage) Kind() Kind    { return KindTextToImage }
func (StyleTransform) Kind() Kind { return KindStyleTransform }
func (Fuse) Kind() Kind           { return KindFuse }
func (FitCheck) Kind() Kind       { return KindFitCheck }

func (TextToImage) isRequest()    {}
func (StyleTransform) isRequest() {}
func (Fuse) isRequest()           {}
func (FitCheck) isRequest()       {}

// ProducesAnalysis は分析結果を伴う種類かどうかを返します。
// 分析を伴う種類では画像の欠落はエラーになりません。
func (k Kind) ProducesAnalysis() bool {
	return k == KindFitCheck
}
