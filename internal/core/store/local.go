package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"supplier-service/internal/domain"
)

// LocalBackend lê e grava arquivos num diretório local. Um arquivo de dono do
// Office ("~$nome.xlsx") ao lado do documento indica que ele está aberto.
type LocalBackend struct {
	root string
}

// NewLocalBackend cria o backend com raiz em dir.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{root: dir}
}

func (l *LocalBackend) resolve(path string) (string, error) {
	root := filepath.Clean(l.root)
	full := filepath.Join(root, filepath.Clean("/"+filepath.FromSlash(path)))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("caminho fora do diretório de dados: %q", path)
	}
	return full, nil
}

func (l *LocalBackend) OpenBinary(ctx context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (l *LocalBackend) SaveBinary(ctx context.Context, path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	owner := filepath.Join(filepath.Dir(full), "~$"+filepath.Base(full))
	if _, err := os.Stat(owner); err == nil {
		return fmt.Errorf("arquivo %q aberto por outro usuário: %w", path, domain.ErrLocked)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("erro ao criar diretório: %w", err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, full)
}
