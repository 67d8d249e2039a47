// internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"supplier-service/internal/api/responses"
	"supplier-service/internal/core/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service  auth.Service
	sessions Sessions
}

func NewAuthHandler(service auth.Service, sessions Sessions) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	if !h.service.Enabled() {
		responses.Error(c, http.StatusNotFound, "Autenticação desabilitada")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida")
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		responses.Error(c, http.StatusUnauthorized, err.Error())
		return
	}

	responses.Success(c, gin.H{"token": token}, "")
}

// Reload descarta o estado em memória da sessão; a próxima leitura busca os documentos.
func (h *AuthHandler) Reload(c *gin.Context) {
	h.sessions.Reload(sessionID(c))
	responses.Success(c, nil, "Sessão recarregada")
}
