package filestore

import (
	"context"
	"io"
	"sync"

	"github.com/inksight/backend/core"
)

// MockStorage keeps saved files in memory for tests.
type MockStorage struct {
	mu    sync.Mutex
	Saved map[string][]byte
}

var _ core.FileStorage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{Saved: make(map[string][]byte)}
}

func (st *MockStorage) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	st.mu.Lock()
	st.Saved[name] = data
	st.mu.Unlock()
	return "http://localhost:8000/media/" + name, nil
}
