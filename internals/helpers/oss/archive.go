package helper

import (
	"context"
	"sync"
)

// Archiver keeps a copy of an uploaded source file.
type Archiver interface {
	Archive(ctx context.Context, dir, filename string, data []byte, contentType string) (key string, err error)
}

// MockArchiver keeps archived files in memory.
type MockArchiver struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error
}

func (m *MockArchiver) Archive(_ context.Context, dir, filename string, data []byte, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Files == nil {
		m.Files = map[string][]byte{}
	}
	key := joinParts(dir) + "/" + filename
	m.Files[key] = append([]byte(nil), data...)
	return key, nil
}
