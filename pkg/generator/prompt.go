package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

const (
	fusePrompt = "Fuse two images. Use the first image's subject and the second's background/texture. Make it cohesive."

	fitCheckPrompt = "Compare the person in the first image with the outfit in the second image. " +
		"Generate a visualization of the person wearing the outfit, and return a fit analysis as a JSON object " +
		`with the keys "score" (number from 0 to 10), "colorFeedback", "sizeFeedback", "occasion" and "suggestions" (strings).`
)

// BuildPayload はリクエストからバックエンド向けの送信内容を決定的に組み立てます。
// 画像は data URL プレフィックスを除去したバイナリに正規化されます。
func BuildPayload(req domain.Request) (Payload, error) {
	switch r := req.(type) {
	case domain.TextToImage:
		if strings.TrimSpace(r.Prompt) == "" {
			return Payload{}, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
		}
		return Payload{
			Kind:        r.Kind(),
			Prompt:      fmt.Sprintf("%s Style: %s. Aspect: %s.", r.Prompt, r.Style, r.Aspect),
			AspectRatio: r.Aspect,
		}, nil

	case domain.StyleTransform:
		images, err := normalizeInputs(namedImage{"source image", r.Source})
		if err != nil {
			return Payload{}, err
		}
		prompt := fmt.Sprintf("Transform image to %s.", r.Style)
		if refine := strings.TrimSpace(r.RefinePrompt); refine != "" {
			prompt += " " + refine
		}
		return Payload{Kind: r.Kind(), Prompt: prompt, Images: images}, nil

	case domain.Fuse:
		images, err := normalizeInputs(namedImage{"image a", r.ImageA}, namedImage{"image b", r.ImageB})
		if err != nil {
			return Payload{}, err
		}
		return Payload{Kind: r.Kind(), Prompt: fusePrompt, Images: images}, nil

	case domain.FitCheck:
		images, err := normalizeInputs(namedImage{"person image", r.Person}, namedImage{"outfit image", r.Outfit})
		if err != nil {
			return Payload{}, err
		}
		return Payload{Kind: r.Kind(), Prompt: fitCheckPrompt, Images: images}, nil

	case nil:
		return Payload{}, fmt.Errorf("%w: request is nil", ErrInvalidRequest)

	default:
		return Payload{}, fmt.Errorf("%w: unsupported request type %T", ErrInvalidRequest, req)
	}
}

type namedImage struct {
	name  string
	image domain.Image
}

// normalizeInputs は入力画像の空チェックと data URL の除去を行います。
func normalizeInputs(inputs ...namedImage) ([]domain.Image, error) {
	out := make([]domain.Image, 0, len(inputs))
	for _, in := range inputs {
		if in.image.IsEmpty() {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidRequest, in.name)
		}
		img, err := domain.StripDataURL(in.image)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, in.name, err)
		}
		if img.MIMEType == "" && len(img.Data) > 0 {
			img.MIMEType = domain.DetectMIMEType(img.Data)
		}
		out = append(out, img)
	}
	return out, nil
}
