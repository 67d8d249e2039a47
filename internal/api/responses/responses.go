// internal/api/responses/responses.go
package responses

import (
	"errors"
	"net/http"

	"supplier-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// APIResponse defines the standard envelope for API responses.
type APIResponse struct {
	Status   string      `json:"status"` // "success", "warning" or "error"
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// InitLogger initializes the structured logger shared by the API layer and
// returns it so the rest of the service can log with the same configuration.
func InitLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	logger = l
	return l, nil
}

// SetLogger replaces the package logger (tests use zap.NewNop or an observer).
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

func requestFields(c *gin.Context, code int) []zap.Field {
	fields := []zap.Field{zap.String("path", c.Request.URL.Path), zap.Int("status", code)}
	if id := c.GetString("requestID"); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// Success sends a successful response with the provided data and message.
func Success(c *gin.Context, data interface{}, message string) {
	resp := APIResponse{Status: "success", Data: data, Message: message}
	c.JSON(http.StatusOK, resp)
	logger.Info("API success", requestFields(c, http.StatusOK)...)
}

// Created is Success with 201.
func Created(c *gin.Context, data interface{}, message string) {
	resp := APIResponse{Status: "success", Data: data, Message: message}
	c.JSON(http.StatusCreated, resp)
	logger.Info("API success", requestFields(c, http.StatusCreated)...)
}

// Warning sends data together with recoverable problems the user must act on.
func Warning(c *gin.Context, code int, data interface{}, message string, warnings ...string) {
	resp := APIResponse{Status: "warning", Data: data, Message: message, Warnings: warnings}
	c.JSON(code, resp)
	logger.Warn("API warning", append(requestFields(c, code), zap.Strings("warnings", warnings))...)
}

// Error sends an error response with the provided code, message, and optional errors.
func Error(c *gin.Context, code int, message string, errs ...string) {
	resp := APIResponse{Status: "error", Message: message, Errors: errs}
	c.JSON(code, resp)
	logger.Error("API error", append(requestFields(c, code), zap.Strings("errors", errs))...)
}

// FromError translates domain errors into the response envelope. data is sent
// along with warnings (lock, failed load) so the client keeps what it has.
func FromError(c *gin.Context, err error, data interface{}) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		locked     *domain.RemoteLockedError
		fetch      *domain.RemoteFetchError
		save       *domain.RemoteSaveError
	)
	switch {
	case errors.As(err, &validation):
		Error(c, http.StatusBadRequest, "Dados inválidos", validation.Error())
	case errors.As(err, &notFound):
		Error(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &locked):
		Warning(c, http.StatusLocked, data, "Documento bloqueado; as alterações continuam apenas em memória", locked.Error())
	case errors.As(err, &save):
		Error(c, http.StatusBadGateway, "Erro ao salvar; as alterações continuam apenas em memória", save.Error())
	case errors.As(err, &fetch):
		Error(c, http.StatusBadGateway, "Erro ao carregar os dados", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "Erro interno", err.Error())
	}
}
