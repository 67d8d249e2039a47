package domain

import (
	"errors"
	"fmt"
)

// ErrLocked é retornado pelos backends quando o documento remoto está bloqueado
// (check-out ou aberto por outro editor).
var ErrLocked = errors.New("documento bloqueado para edição")

// RemoteFetchError indica falha ao carregar um documento remoto. O chamador deve
// apresentar a mensagem e seguir com um conjunto vazio.
type RemoteFetchError struct {
	Path string
	Err  error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("erro ao carregar o arquivo Excel %q: %v", e.Path, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// RemoteLockedError indica que o salvamento foi recusado porque o documento está
// bloqueado. É um aviso recuperável: o usuário deve liberar o arquivo e tentar de novo.
type RemoteLockedError struct {
	Path string
	Err  error
}

func (e *RemoteLockedError) Error() string {
	return fmt.Sprintf("o arquivo %q está bloqueado para edição (aberto por outra pessoa ou em uso); "+
		"feche o arquivo ou faça check-in para liberá-lo antes de salvar", e.Path)
}

func (e *RemoteLockedError) Unwrap() error { return e.Err }

// RemoteSaveError cobre qualquer outra falha de salvamento. Os dados continuam
// apenas em memória.
type RemoteSaveError struct {
	Path string
	Err  error
}

func (e *RemoteSaveError) Error() string {
	return fmt.Sprintf("erro ao salvar o arquivo Excel %q: %v", e.Path, e.Err)
}

func (e *RemoteSaveError) Unwrap() error { return e.Err }

// ValidationError é detectado antes de qualquer I/O; nenhum estado é alterado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError cria um ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indica que o registro pedido não existe.
type NotFoundError struct {
	Kind       string
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s %q não encontrado (você quis dizer %q?)", e.Kind, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("%s %q não encontrado", e.Kind, e.Name)
}

// IsLocked informa se err (ou algum erro encadeado) é um bloqueio do documento.
func IsLocked(err error) bool {
	var locked *RemoteLockedError
	return errors.As(err, &locked) || errors.Is(err, ErrLocked)
}
