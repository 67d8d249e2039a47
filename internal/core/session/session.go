package session

import (
	"sync"
	"time"

	"supplier-service/internal/core/ledger"
	"supplier-service/internal/core/store"
	"supplier-service/internal/core/supplier"

	"go.uber.org/zap"
)

// DefaultID é a sessão única usada quando a autenticação está desligada.
const DefaultID = "default"

// State é o estado de uma sessão: os dois repositórios em memória.
type State struct {
	Suppliers supplier.Repository
	Ledger    ledger.Repository

	lastUsed time.Time
}

// Manager entrega um State por id de sessão, criando sob demanda.
type Manager struct {
	store         store.Service
	suppliersPath string
	ledgerDocs    map[string]string
	idleTimeout   time.Duration
	logger        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*State
	now      func() time.Time
}

// NewManager cria o gerenciador. idleTimeout zero mantém as sessões para sempre.
func NewManager(svc store.Service, suppliersPath string, ledgerDocs map[string]string, idleTimeout time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:         svc,
		suppliersPath: suppliersPath,
		ledgerDocs:    ledgerDocs,
		idleTimeout:   idleTimeout,
		logger:        logger,
		sessions:      make(map[string]*State),
		now:           time.Now,
	}
}

// Get devolve o estado da sessão. Sessões ociosas além do limite são descartadas.
func (m *Manager) Get(id string) *State {
	if id == "" {
		id = DefaultID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(now)

	st, ok := m.sessions[id]
	if !ok {
		logger := m.logger.With(zap.String("session", id))
		st = &State{
			Suppliers: supplier.NewRepository(m.store, m.suppliersPath, logger),
			Ledger:    ledger.NewRepository(m.store, m.ledgerDocs, logger),
		}
		m.sessions[id] = st
		m.logger.Info("sessão criada", zap.String("session", id))
	}
	st.lastUsed = now
	return st
}

// Reload descarta o estado da sessão; o próximo acesso busca os documentos de novo.
func (m *Manager) Reload(id string) {
	if id == "" {
		id = DefaultID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.logger.Info("sessão recarregada", zap.String("session", id))
}

// Len retorna o número de sessões ativas.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) prune(now time.Time) {
	if m.idleTimeout <= 0 {
		return
	}
	for id, st := range m.sessions {
		if now.Sub(st.lastUsed) > m.idleTimeout {
			delete(m.sessions, id)
			m.logger.Info("sessão expirada", zap.String("session", id))
		}
	}
}
