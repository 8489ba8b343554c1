package adapters

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockContentGenerator は ContentGenerator のテスト用モックです。
type mockContentGenerator struct {
	mu       sync.Mutex
	calls    int
	models   []string
	contents [][]*genai.Content
	configs  []*genai.GenerateContentConfig

	generateFunc func(call int) (*genai.GenerateContentResponse, error)
}

func (m *mockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.models = append(m.models, model)
	m.contents = append(m.contents, contents)
	m.configs = append(m.configs, config)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.generateFunc != nil {
		return m.generateFunc(call)
	}
	return imageResponse([]byte("gemini-image"), "image/png"), nil
}

func (m *mockContentGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// factoryFor は常に同じモックを返し、受け取ったキーを記録する ClientFactory を作ります。
func factoryFor(gen ContentGenerator, keys *[]string) ClientFactory {
	var mu sync.Mutex
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		mu.Lock()
		defer mu.Unlock()
		if keys != nil {
			*keys = append(*keys, apiKey)
		}
		return gen, nil
	}
}

func imageResponse(data []byte, mimeType string, extra ...*genai.Part) *genai.GenerateContentResponse {
	parts := append([]*genai.Part{{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}}, extra...)
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts, Role: genai.RoleModel},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
