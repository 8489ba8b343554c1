package generator

import (
	"context"
	"sync"
	"time"
)

// --- Mocks ---

// mockTransport は Transport のテスト用モックです。呼び出し回数と送信内容を記録します。
type mockTransport struct {
	mu       sync.Mutex
	calls    int
	keys     []string
	payloads []Payload
	sendFunc func(ctx context.Context, call int, payload Payload) (*BackendResponse, error)
}

func (m *mockTransport) Name() string { return "mock" }

func (m *mockTransport) Send(ctx context.Context, apiKey string, payload Payload) (*BackendResponse, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.keys = append(m.keys, apiKey)
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()

	if m.sendFunc != nil {
		return m.sendFunc(ctx, call, payload)
	}
	return NewRawBinaryResponse([]byte("fake-image"), "image/png"), nil
}

func (m *mockTransport) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingTimer は待ち時間を記録して即座に発火する backoff.Timer です。
type recordingTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func (r *recordingTimer) Start(d time.Duration) {
	r.waits = append(r.waits, d)
	r.c = make(chan time.Time, 1)
	r.c <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time { return r.c }

// blockingTimer は発火せず、Start 時に onStart を呼び出す backoff.Timer です。
type blockingTimer struct {
	onStart func()
}

func (b *blockingTimer) Start(time.Duration) {
	if b.onStart != nil {
		b.onStart()
	}
}

func (b *blockingTimer) Stop() {}

func (b *blockingTimer) C() <-chan time.Time { return nil }

// mockFetcher は Fetcher のテスト用モックです。
type mockFetcher struct {
	data    []byte
	err     error
	fetched []string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.fetched = append(m.fetched, url)
	return m.data, m.err
}
