package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"supplier-service/internal/domain"
)

// MemoryBackend guarda os arquivos em memória. Usado em testes e no modo
// STORE_BACKEND=memory.
type MemoryBackend struct {
	mu     sync.Mutex
	files  map[string][]byte
	locked map[string]bool
	saves  map[string]int
}

// NewMemoryBackend cria um backend vazio.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		files:  make(map[string][]byte),
		locked: make(map[string]bool),
		saves:  make(map[string]int),
	}
}

func (m *MemoryBackend) OpenBinary(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("arquivo %q: %w", path, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) SaveBinary(ctx context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[path] {
		return fmt.Errorf("arquivo %q: %w", path, domain.ErrLocked)
	}
	m.files[path] = append([]byte(nil), data...)
	m.saves[path]++
	return nil
}

// Put grava o arquivo diretamente, sem passar pelo contador de gravações.
func (m *MemoryBackend) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)
}

// Lock simula o check-out do documento por outro editor.
func (m *MemoryBackend) Lock(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked[path] = true
}

// Unlock libera o documento.
func (m *MemoryBackend) Unlock(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, path)
}

// Saves retorna quantas vezes o documento foi gravado.
func (m *MemoryBackend) Saves(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[path]
}

// EncodeDocument gera os bytes .xlsx de um documento; útil para semear backends.
func EncodeDocument(doc *Document) ([]byte, error) {
	return encodeWorkbook(doc)
}

// DecodeDocument lê os bytes de uma pasta de trabalho.
func DecodeDocument(data []byte) (*Document, error) {
	return decodeWorkbook(data)
}
