package testutil

import (
	"context"
	"sync"
	"time"

	"trwlexporter/internal/providers"
	"trwlexporter/internal/structures"
	"trwlexporter/internal/upstream"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockCompressor implements interfaces.CompressorInterface without touching
// the data, so persisted test files stay readable.
type MockCompressor struct{}

func (m *MockCompressor) Compress(val []byte) ([]byte, error)   { return val, nil }
func (m *MockCompressor) Decompress(val []byte) ([]byte, error) { return val, nil }
func (m *MockCompressor) Close()                                {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu               sync.Mutex
	RequestsTotal    int
	UpstreamRequests int
	PollDurations    int
	PollFailures     map[string]int // "user/kind"
	CacheHits        int
	CacheMisses      int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestsTotal++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncUpstreamRequests(_ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamRequests++
}

func (m *MockMetrics) ObservePollDuration(_ string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PollDurations++
}

func (m *MockMetrics) IncPollFailures(user string, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PollFailures == nil {
		m.PollFailures = make(map[string]int)
	}
	m.PollFailures[user+"/"+kind]++
}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

// MockResponse is one scripted FetchPage result.
type MockResponse struct {
	Page *upstream.Page
	Err  error
}

// MockClient implements upstream.ClientInterface from a per-account script.
// Responses are consumed in call order; when an account's script runs out it
// keeps returning an empty caught-up page.
type MockClient struct {
	mu      sync.Mutex
	Scripts map[string][]MockResponse
	Calls   map[string][]string // account id -> cursors requested
}

func NewMockClient() *MockClient {
	return &MockClient{
		Scripts: make(map[string][]MockResponse),
		Calls:   make(map[string][]string),
	}
}

func (m *MockClient) Queue(accountID string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scripts[accountID] = append(m.Scripts[accountID], resp)
}

func (m *MockClient) FetchPage(_ context.Context, account *structures.Account, cursor string) (*upstream.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[account.ID] = append(m.Calls[account.ID], cursor)

	script := m.Scripts[account.ID]
	if len(script) == 0 {
		return &upstream.Page{}, nil
	}
	next := script[0]
	m.Scripts[account.ID] = script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return next.Page, nil
}

func (m *MockClient) CallCount(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[accountID])
}
