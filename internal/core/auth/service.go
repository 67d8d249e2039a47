// internal/core/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("usuário ou senha inválidos")
	ErrInvalidToken       = errors.New("token de acesso inválido ou expirado")
)

// Claims é o conteúdo do token. SessionID identifica o estado em memória da sessão.
type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Service interface {
	Enabled() bool
	Login(ctx context.Context, username, password string) (string, error)
	Validate(token string) (*Claims, error)
}

type service struct {
	users     map[string]string
	jwtSecret []byte
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService cria o serviço. users mapeia usuário → hash bcrypt; sem usuários a
// autenticação fica desligada.
func NewService(users map[string]string, jwtSecret []byte, ttl time.Duration, logger *zap.Logger) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{users: users, jwtSecret: jwtSecret, ttl: ttl, logger: logger, now: time.Now}
}

func (s *service) Enabled() bool {
	return len(s.users) > 0
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	// 1. Encontrar o usuário.
	hash, ok := s.users[username]
	if !ok {
		s.logger.Warn("login com usuário desconhecido", zap.String("username", username))
		return "", ErrInvalidCredentials
	}

	// 2. Comparar a senha fornecida com o hash armazenado.
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.logger.Warn("senha inválida", zap.String("username", username))
		return "", ErrInvalidCredentials
	}

	// 3. Gerar o token com uma sessão nova.
	now := s.now()
	claims := Claims{
		Username:  username,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.New("erro ao gerar token de acesso")
	}

	s.logger.Info("login efetuado", zap.String("username", username), zap.String("session", claims.SessionID))
	return tokenString, nil
}

func (s *service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("algoritmo inesperado: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword gera o hash bcrypt usado em AUTH_USERS.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
