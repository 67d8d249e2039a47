package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"supplier-service/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// SharePointConfig reúne o endereço do site e as credenciais do Azure AD.
// Com Username/Password usa o fluxo de senha (mesmas credenciais do usuário
// de serviço); sem eles usa client credentials.
type SharePointConfig struct {
	SiteURL      string
	TenantID     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// TokenURL e Scopes são derivados do tenant e do site quando vazios.
	TokenURL string
	Scopes   []string
}

// SharePointBackend usa a API REST do SharePoint para abrir e salvar o binário.
type SharePointBackend struct {
	siteURL string
	client  *http.Client
}

type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (p *passwordTokenSource) Token() (*oauth2.Token, error) {
	return p.conf.PasswordCredentialsToken(p.ctx, p.username, p.password)
}

// NewSharePointBackend monta o cliente HTTP autenticado. A autenticação só
// acontece na primeira requisição.
func NewSharePointBackend(ctx context.Context, cfg SharePointConfig) (*SharePointBackend, error) {
	site, err := url.Parse(strings.TrimRight(cfg.SiteURL, "/"))
	if err != nil || site.Scheme == "" || site.Host == "" {
		return nil, fmt.Errorf("endereço do SharePoint inválido: %q", cfg.SiteURL)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("SHAREPOINT_TENANT_ID não configurado")
		}
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{fmt.Sprintf("%s://%s/.default", site.Scheme, site.Host)}
	}

	var ts oauth2.TokenSource
	if cfg.Username != "" {
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
			Scopes:       scopes,
		}
		ts = oauth2.ReuseTokenSource(nil, &passwordTokenSource{ctx: ctx, conf: conf, username: cfg.Username, password: cfg.Password})
	} else {
		conf := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}
		ts = conf.TokenSource(ctx)
	}

	return &SharePointBackend{
		siteURL: site.String(),
		client:  oauth2.NewClient(ctx, ts),
	}, nil
}

// fileURL monta .../_api/web/GetFileByServerRelativeUrl('<path>')/$value.
func (b *SharePointBackend) fileURL(path string) string {
	segments := strings.Split(strings.ReplaceAll(path, "'", "''"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/_api/web/GetFileByServerRelativeUrl('%s')/$value", b.siteURL, strings.Join(segments, "/"))
}

func (b *SharePointBackend) OpenBinary(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.fileURL(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	return io.ReadAll(resp.Body)
}

// addURL monta a chamada Files/add da pasta, usada quando o arquivo ainda não existe.
func (b *SharePointBackend) addURL(path string) string {
	dir, name := "", path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		dir, name = path[:i], path[i+1:]
	}
	escape := func(p string) string {
		segments := strings.Split(strings.ReplaceAll(p, "'", "''"), "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		return strings.Join(segments, "/")
	}
	return fmt.Sprintf("%s/_api/web/GetFolderByServerRelativeUrl('%s')/Files/add(url='%s',overwrite=true)", b.siteURL, escape(dir), escape(name))
}

// SaveBinary sobrescreve o arquivo inteiro. Se ele ainda não existir, cria na pasta.
func (b *SharePointBackend) SaveBinary(ctx context.Context, path string, data []byte) error {
	err := b.post(ctx, b.fileURL(path), data, true)
	if errors.Is(err, os.ErrNotExist) {
		return b.post(ctx, b.addURL(path), data, false)
	}
	return err
}

func (b *SharePointBackend) post(ctx context.Context, target string, data []byte, overwrite bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if overwrite {
		req.Header.Set("X-HTTP-Method", "PUT")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json;odata=verbose")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	switch resp.StatusCode {
	case http.StatusLocked:
		return fmt.Errorf("sharepoint %d %s: %s: %w", resp.StatusCode, http.StatusText(resp.StatusCode), msg, domain.ErrLocked)
	case http.StatusNotFound:
		return fmt.Errorf("sharepoint %d %s: %s: %w", resp.StatusCode, http.StatusText(resp.StatusCode), msg, os.ErrNotExist)
	}
	return fmt.Errorf("sharepoint %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), msg)
}
