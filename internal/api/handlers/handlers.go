package handlers

import (
	"errors"
	"net/http"

	"supplier-service/internal/api/middleware"
	"supplier-service/internal/api/responses"
	"supplier-service/internal/core/session"
	"supplier-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// Sessions entrega o estado em memória de cada sessão.
type Sessions interface {
	Get(id string) *session.State
	Reload(id string)
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimestamp = "20060102_150405"
)

func sessionID(c *gin.Context) string {
	return c.GetString(middleware.SessionIDKey)
}

// respondRead envia dados de leitura. Se a carga falhou a resposta ainda é 200,
// com o que foi possível carregar e a falha como aviso.
func respondRead(c *gin.Context, data interface{}, err error, message string) {
	var fetchErr *domain.RemoteFetchError
	switch {
	case err == nil:
		responses.Success(c, data, message)
	case errors.As(err, &fetchErr):
		responses.Warning(c, http.StatusOK, data, "Não foi possível carregar todos os dados; exibindo o que está disponível", err.Error())
	default:
		responses.FromError(c, err, data)
	}
}

// respondWrite envia o resultado de uma alteração que grava no documento.
func respondWrite(c *gin.Context, code int, data interface{}, err error, message string) {
	if err != nil {
		responses.FromError(c, err, data)
		return
	}
	if code == http.StatusCreated {
		responses.Created(c, data, message)
		return
	}
	responses.Success(c, data, message)
}
