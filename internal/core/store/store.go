// internal/core/store/store.go
package store

import (
	"context"
	"errors"
	"strings"

	"supplier-service/internal/domain"

	"go.uber.org/zap"
)

// Sheet é uma aba: cabeçalho e linhas. Na leitura todas as células vêm como
// string; na gravação cada célula é escrita com o tipo recebido.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Document é uma pasta de trabalho, com as abas na ordem de gravação.
type Document struct {
	Sheets []Sheet
}

// Sheet retorna a aba com o nome dado.
func (d *Document) Sheet(name string) (*Sheet, bool) {
	for i := range d.Sheets {
		if d.Sheets[i].Name == name {
			return &d.Sheets[i], true
		}
	}
	return nil, false
}

// Backend abstrai o armazenamento remoto do arquivo binário.
type Backend interface {
	OpenBinary(ctx context.Context, path string) ([]byte, error)
	SaveBinary(ctx context.Context, path string, data []byte) error
}

// Service busca e grava documentos inteiros. Não existe gravação parcial: cada
// SaveDocument sobrescreve o arquivo remoto com todas as abas.
type Service interface {
	FetchDocument(ctx context.Context, path string) (*Document, error)
	SaveDocument(ctx context.Context, path string, doc *Document) error
}

type service struct {
	backend Backend
	logger  *zap.Logger
}

// NewService cria o adaptador sobre o backend informado.
func NewService(backend Backend, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{backend: backend, logger: logger}
}

func (s *service) FetchDocument(ctx context.Context, path string) (*Document, error) {
	data, err := s.backend.OpenBinary(ctx, path)
	if err != nil {
		s.logger.Error("falha ao abrir documento", zap.String("path", path), zap.Error(err))
		return nil, &domain.RemoteFetchError{Path: path, Err: err}
	}

	doc, err := decodeWorkbook(data)
	if err != nil {
		s.logger.Error("falha ao ler planilhas", zap.String("path", path), zap.Error(err))
		return nil, &domain.RemoteFetchError{Path: path, Err: err}
	}

	s.logger.Info("documento carregado", zap.String("path", path), zap.Int("sheets", len(doc.Sheets)), zap.Int("bytes", len(data)))
	return doc, nil
}

func (s *service) SaveDocument(ctx context.Context, path string, doc *Document) error {
	data, err := encodeWorkbook(doc)
	if err != nil {
		s.logger.Error("falha ao gerar planilhas", zap.String("path", path), zap.Error(err))
		return &domain.RemoteSaveError{Path: path, Err: err}
	}

	if err := s.backend.SaveBinary(ctx, path, data); err != nil {
		if isLockFailure(err) {
			s.logger.Warn("documento bloqueado", zap.String("path", path), zap.Error(err))
			return &domain.RemoteLockedError{Path: path, Err: err}
		}
		s.logger.Error("falha ao salvar documento", zap.String("path", path), zap.Error(err))
		return &domain.RemoteSaveError{Path: path, Err: err}
	}

	s.logger.Info("documento salvo", zap.String("path", path), zap.Int("sheets", len(doc.Sheets)), zap.Int("bytes", len(data)))
	return nil
}

// isLockFailure reconhece o bloqueio pelo sentinel ou pela mensagem do serviço
// remoto ("Locked", HTTP 423).
func isLockFailure(err error) bool {
	if errors.Is(err, domain.ErrLocked) {
		return true
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "locked") || strings.Contains(msg, "423")
}
