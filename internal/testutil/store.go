package testutil

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"Marketplace/internal/storage"
)

// PNG is the smallest header mimetype recognizes as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// MemoryStore is an in-memory storage.ImageStore recording every call.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}}
}

func (m *MemoryStore) Upload(_ context.Context, file *multipart.FileHeader, folder string) (string, error) {
	mt, err := storage.Sniff(file)
	if err != nil {
		return "", err
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	key := storage.ObjectKey(folder, mt.Extension())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return key, nil
}

func (m *MemoryStore) Delete(_ context.Context, stored string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, stored)
	m.Deleted = append(m.Deleted, stored)
	return nil
}

func (m *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[key]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

// FileHeader builds a multipart file header holding content under field "image".
func FileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}
