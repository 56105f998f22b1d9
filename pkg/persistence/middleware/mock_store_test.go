package middleware_test

import (
	"context"
	"errors"
)

// MockKV is a simple map-based store for testing middleware.
type MockKV struct {
	data map[string]string
	err  error
}

func NewMockKV() *MockKV {
	return &MockKV{
		data: make(map[string]string),
	}
}

func (m *MockKV) Get(ctx context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

var errBackend = errors.New("backend unavailable")
