package server

import (
	"context"
	"sync"

	"github.com/shouni/genimage-adapter/pkg/domain"
)

// --- Mocks ---

// mockGenerator は Generator のテスト用モックです。受け取ったリクエストを記録します。
type mockGenerator struct {
	mu       sync.Mutex
	requests []domain.Request

	generateFunc func(ctx context.Context, req domain.Request) (*domain.Result, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.Request) (*domain.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	img := domain.NewImage([]byte{1, 2, 3}, "image/png")
	return &domain.Result{Image: &img}, nil
}
