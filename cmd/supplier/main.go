// cmd/supplier/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"supplier-service/internal/api/handlers"
	"supplier-service/internal/api/middleware"
	"supplier-service/internal/api/responses"
	"supplier-service/internal/config"
	"supplier-service/internal/core/auth"
	"supplier-service/internal/core/session"
	"supplier-service/internal/core/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "supplier",
		Short:         "Cadastro de fornecedores e controle mensal de pagamentos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "arquivo .env (padrão: .env no diretório atual, se existir)")

	root.AddCommand(serveCmd(), checkCmd(), hashPasswordCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("Erro: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendLocal:
		return store.NewLocalBackend(cfg.LocalStoreDir), nil
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	default:
		return store.NewSharePointBackend(ctx, store.SharePointConfig{
			SiteURL:      cfg.SharePoint.SiteURL,
			TenantID:     cfg.SharePoint.TenantID,
			ClientID:     cfg.SharePoint.ClientID,
			ClientSecret: cfg.SharePoint.ClientSecret,
			Username:     cfg.SharePoint.Email,
			Password:     cfg.SharePoint.Password,
		})
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia a API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := responses.InitLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			backend, err := newBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			storeService := store.NewService(backend, logger.Named("store"))
			sessions := session.NewManager(storeService, cfg.SuppliersFile, cfg.LedgerDocuments, cfg.SessionIdleTimeout, logger.Named("session"))
			authService := auth.NewService(cfg.AuthUsers, []byte(cfg.JWTSecret), cfg.JWTTTL, logger.Named("auth"))
			if !authService.Enabled() {
				logger.Warn("AUTH_USERS vazio: autenticação desligada, todos os clientes compartilham a mesma sessão")
			}

			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger.Named("http")))

			corsConfig := cors.DefaultConfig()
			corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
			corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
			if len(cfg.CORSOrigins) > 0 {
				corsConfig.AllowOrigins = cfg.CORSOrigins
			} else {
				corsConfig.AllowAllOrigins = true
			}
			router.Use(cors.New(corsConfig))

			handlers.RegisterRoutes(router, authService, sessions)

			logger.Info(fmt.Sprintf("🚀 Supplier Service (Go) iniciado e escutando na porta %s", cfg.Port),
				zap.String("backend", cfg.StoreBackend),
				zap.Int("ledger_years", len(cfg.LedgerDocuments)),
			)
			if err := router.Run(":" + cfg.Port); err != nil {
				return fmt.Errorf("falha ao iniciar o servidor de fornecedores: %w", err)
			}
			return nil
		},
	}
}

// checkCmd busca todos os documentos configurados e mostra quantas abas e
// linhas cada um tem, sem subir o servidor.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verifica o acesso aos documentos configurados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			backend, err := newBackend(ctx, cfg)
			if err != nil {
				return err
			}
			svc := store.NewService(backend, zap.NewNop())

			targets := []struct{ label, path string }{{"fornecedores", cfg.SuppliersFile}}
			years := make([]string, 0, len(cfg.LedgerDocuments))
			for year := range cfg.LedgerDocuments {
				years = append(years, year)
			}
			sort.Strings(years)
			for _, year := range years {
				targets = append(targets, struct{ label, path string }{"controle " + year, cfg.LedgerDocuments[year]})
			}

			var failures []error
			out := cmd.OutOrStdout()
			for _, t := range targets {
				doc, err := svc.FetchDocument(ctx, t.path)
				switch {
				case errors.Is(err, os.ErrNotExist):
					fmt.Fprintf(out, "%-16s %s: não existe (será criado no primeiro salvamento)\n", t.label, t.path)
				case err != nil:
					fmt.Fprintf(out, "%-16s %s: ERRO %v\n", t.label, t.path, err)
					failures = append(failures, fmt.Errorf("%s: %w", t.label, err))
				default:
					rows := 0
					for _, sh := range doc.Sheets {
						rows += len(sh.Rows)
					}
					fmt.Fprintf(out, "%-16s %s: %d abas, %d linhas\n", t.label, t.path, len(doc.Sheets), rows)
				}
			}
			return errors.Join(failures...)
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [senha]",
		Short: "Gera o hash bcrypt de uma senha para AUTH_USERS",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "Senha: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("erro ao ler a senha: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
