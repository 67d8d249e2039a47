// Package config carrega a configuração do serviço a partir de variáveis de
// ambiente, de um .env opcional e de um YAML opcional com os documentos por ano.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends de armazenamento aceitos em STORE_BACKEND.
const (
	BackendSharePoint = "sharepoint"
	BackendLocal      = "local"
	BackendMemory     = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend  string
	LocalStoreDir string
	SharePoint    SharePointConfig

	SuppliersFile string
	// LedgerDocuments mapeia ano → caminho do documento do controle mensal.
	LedgerDocuments map[string]string

	JWTSecret   string
	JWTTTL      time.Duration
	AuthUsers   map[string]string
	CORSOrigins []string

	SessionIdleTimeout time.Duration
}

type SharePointConfig struct {
	SiteURL      string
	TenantID     string
	ClientID     string
	ClientSecret string
	Email        string
	Password     string
}

// fileConfig é o formato do CONFIG_FILE.
type fileConfig struct {
	Suppliers struct {
		File string `yaml:"file"`
	} `yaml:"suppliers"`
	Ledger struct {
		Documents map[string]string `yaml:"documents"`
	} `yaml:"ledger"`
}

// Load lê o .env (se existir), o CONFIG_FILE (se informado) e as variáveis de
// ambiente. Variáveis de ambiente têm precedência sobre o YAML.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("erro ao carregar %s: %w", envPath[0], err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8084"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendSharePoint)),
		LocalStoreDir: getEnv("LOCAL_STORE_DIR", "./data"),
		SharePoint: SharePointConfig{
			SiteURL:      os.Getenv("SHAREPOINT_SITE_URL"),
			TenantID:     os.Getenv("SHAREPOINT_TENANT_ID"),
			ClientID:     os.Getenv("SHAREPOINT_CLIENT_ID"),
			ClientSecret: os.Getenv("SHAREPOINT_CLIENT_SECRET"),
			Email:        os.Getenv("SHAREPOINT_EMAIL"),
			Password:     os.Getenv("SHAREPOINT_PASSWORD"),
		},
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LedgerDocuments: make(map[string]string),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		cfg.SuppliersFile = fc.Suppliers.File
		for year, doc := range fc.Ledger.Documents {
			cfg.LedgerDocuments[strings.TrimSpace(year)] = strings.TrimSpace(doc)
		}
	}

	if v := os.Getenv("SUPPLIERS_FILE_URL"); v != "" {
		cfg.SuppliersFile = v
	}

	docs, err := parsePairs(os.Getenv("LEDGER_DOCUMENTS"), "=")
	if err != nil {
		return nil, fmt.Errorf("LEDGER_DOCUMENTS inválido: %w", err)
	}
	for year, doc := range docs {
		cfg.LedgerDocuments[year] = doc
	}

	cfg.AuthUsers, err = parsePairs(os.Getenv("AUTH_USERS"), ":")
	if err != nil {
		return nil, fmt.Errorf("AUTH_USERS inválido: %w", err)
	}

	cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL inválido: %w", err)
	}

	cfg.SessionIdleTimeout, err = time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "8h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT inválido: %w", err)
	}

	return cfg, nil
}

// Validate confere se o backend escolhido tem o que precisa.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c.StoreBackend {
	case BackendSharePoint:
		require("SHAREPOINT_SITE_URL", c.SharePoint.SiteURL)
		require("SHAREPOINT_TENANT_ID", c.SharePoint.TenantID)
		require("SHAREPOINT_CLIENT_ID", c.SharePoint.ClientID)
		if c.SharePoint.Email != "" {
			require("SHAREPOINT_PASSWORD", c.SharePoint.Password)
		} else {
			require("SHAREPOINT_CLIENT_SECRET", c.SharePoint.ClientSecret)
		}
	case BackendLocal:
		require("LOCAL_STORE_DIR", c.LocalStoreDir)
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND desconhecido: %q (use sharepoint, local ou memory)", c.StoreBackend)
	}

	require("SUPPLIERS_FILE_URL", c.SuppliersFile)
	if len(c.LedgerDocuments) == 0 {
		missing = append(missing, "LEDGER_DOCUMENTS")
	}
	if len(c.AuthUsers) > 0 {
		require("JWT_SECRET", c.JWTSecret)
	}

	if len(missing) > 0 {
		return fmt.Errorf("configuração incompleta: %s", strings.Join(missing, ", "))
	}
	return nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler CONFIG_FILE: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("erro ao interpretar CONFIG_FILE: %w", err)
	}
	return &fc, nil
}

// parsePairs lê listas "chave<sep>valor,chave<sep>valor".
func parsePairs(raw, sep string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitList(raw) {
		key, value, ok := strings.Cut(item, sep)
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("item mal formado: %q", item)
		}
		out[key] = value
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
