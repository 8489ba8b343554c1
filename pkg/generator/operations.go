package generator

import (
	"context"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

var _ ImageGenerator = (*Adapter)(nil)

// GenerateFromText はテキストから画像を生成します。
func (a *Adapter) GenerateFromText(ctx context.Context, prompt, style, aspect string) (*domain.Result, error) {
	return a.Generate(ctx, domain.TextToImage{Prompt: prompt, Style: style, Aspect: aspect})
}

// TransformStyle は画像の画風を変換します。refinePrompt は空でも構いません。
func (a *Adapter) TransformStyle(ctx context.Context, source domain.Image, style, refinePrompt string) (*domain.Result, error) {
	return a.Generate(ctx, domain.StyleTransform{Source: source, Style: style, RefinePrompt: refinePrompt})
}

// FuseImages は 2 枚の画像を 1 枚に合成します。
func (a *Adapter) FuseImages(ctx context.Context, imageA, imageB domain.Image) (*domain.Result, error) {
	return a.Generate(ctx, domain.Fuse{ImageA: imageA, ImageB: imageB})
}

// RunFitCheck は人物と服装を比較し、可視化画像と分析結果を返します。
// 画像が得られなかった場合でも分析結果は返るため、Result.Image の nil を確認してください。
func (a *Adapter) RunFitCheck(ctx context.Context, person, outfit domain.Image) (*domain.Result, error) {
	return a.Generate(ctx, domain.FitCheck{Person: person, Outfit: outfit})
}
