package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supplier-service/internal/api/middleware"
	"supplier-service/internal/core/auth"
	"supplier-service/internal/core/session"
	"supplier-service/internal/core/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	suppliersPath = "/sites/fin/Docs/Fornecedores.xlsx"
	ledgerPath    = "/sites/fin/Docs/Controle 2025.xlsx"
)

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings"`
}

func setup(t *testing.T, users map[string]string) (*gin.Engine, *store.MemoryBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemoryBackend()
	svc := store.NewService(mem, nil)
	sessions := session.NewManager(svc, suppliersPath, map[string]string{"2025": ledgerPath}, 0, nil)
	authService := auth.NewService(users, []byte("segredo"), time.Hour, nil)

	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router, authService, sessions)
	return router, mem
}

func do(t *testing.T, router *gin.Engine, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid json: %v", method, path, err)
		}
	}
	return w, env
}

func TestSupplierLifecycle(t *testing.T) {
	router, mem := setup(t, nil)

	w, env := do(t, router, http.MethodGet, "/api/v1/suppliers", "")
	if w.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("list = %d %+v", w.Code, env)
	}

	body := `{"nome":"Acme","geral":{"cnpj":"12345678000190","centroDeCusto":"TI"},"produto":{"descricao":"Licença","categoria":"Software","valorMensal":"R$ 1.234,56","inicioContrato":"2025-03-01"}}`
	w, env = do(t, router, http.MethodPost, "/api/v1/suppliers", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %+v", w.Code, env)
	}
	if !strings.Contains(string(env.Data), `"valorMensal":1234.56`) || !strings.Contains(string(env.Data), `"inicioContrato":"01/03/2025"`) {
		t.Errorf("created = %s", env.Data)
	}
	if mem.Saves(suppliersPath) != 1 {
		t.Errorf("saves = %d", mem.Saves(suppliersPath))
	}

	w, env = do(t, router, http.MethodPost, "/api/v1/suppliers", `{"nome":"Acme"}`)
	if w.Code != http.StatusBadRequest || env.Status != "error" {
		t.Errorf("duplicate = %d %+v", w.Code, env)
	}

	w, _ = do(t, router, http.MethodPut, "/api/v1/suppliers/Acme", `{"geral":{"centroDeCusto":"FIN"},"linhas":[{"descricao":"A"},{"descricao":"B","centroDeCusto":"X"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}
	w, env = do(t, router, http.MethodGet, "/api/v1/suppliers/combined", "")
	if w.Code != http.StatusOK || strings.Count(string(env.Data), `"centroDeCusto":"FIN"`) != 2 || !strings.Contains(string(env.Data), `"aba":"Acme"`) {
		t.Errorf("combined = %d %s", w.Code, env.Data)
	}

	w, env = do(t, router, http.MethodGet, "/api/v1/suppliers/Acmi", "")
	if w.Code != http.StatusNotFound || !strings.Contains(env.Message, "Acme") {
		t.Errorf("not found = %d %+v", w.Code, env)
	}

	mem.Lock(suppliersPath)
	w, env = do(t, router, http.MethodPost, "/api/v1/suppliers/save", "")
	if w.Code != http.StatusLocked || env.Status != "warning" || len(env.Warnings) != 1 {
		t.Errorf("locked save = %d %+v", w.Code, env)
	}
	mem.Unlock(suppliersPath)

	w, _ = do(t, router, http.MethodDelete, "/api/v1/suppliers/Acme", "")
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodDelete, "/api/v1/suppliers/Acme", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", w.Code)
	}
}

func TestDownloads(t *testing.T) {
	router, _ := setup(t, nil)
	do(t, router, http.MethodPost, "/api/v1/suppliers", `{"nome":"Beta Serviços"}`)

	w, _ := do(t, router, http.MethodGet, "/api/v1/suppliers/combined.csv", "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename=ListaFornecedores_") {
		t.Errorf("csv = %d %v", w.Code, w.Header())
	}

	w, _ = do(t, router, http.MethodGet, "/api/v1/suppliers/export", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType || !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("export = %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	w, _ = do(t, router, http.MethodGet, "/api/v1/ledger/export?year=2025", "")
	if w.Code != http.StatusOK {
		t.Errorf("ledger export = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodGet, "/api/v1/ledger/export?year=1999", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("ledger export unmapped year = %d", w.Code)
	}
}

func TestImport(t *testing.T) {
	router, _ := setup(t, nil)

	upload, err := store.EncodeDocument(&store.Document{Sheets: []store.Sheet{
		{Name: "Omega", Columns: []string{"Fornecedor"}, Rows: [][]any{{"Omega"}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "fornecedores.xlsx")
	fw.Write(upload)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"importadas":["Omega"]`) {
		t.Fatalf("import = %d %s", w.Code, w.Body.String())
	}

	_, env := do(t, router, http.MethodGet, "/api/v1/suppliers", "")
	if !strings.Contains(string(env.Data), "Omega") {
		t.Errorf("list after import = %s", env.Data)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	router, mem := setup(t, nil)

	payment := `{"fornecedor":"Acme","idPagamento":"P1","ano":"2025","mes":"janeiro","valorEstimado":200,"valorPago":100,"modo":"merge"}`
	w, env := do(t, router, http.MethodPost, "/api/v1/ledger/payments", payment)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d %+v", w.Code, env)
	}
	second := strings.Replace(payment, `"valorPago":100`, `"valorPago":"50,00"`, 1)
	w, env = do(t, router, http.MethodPost, "/api/v1/ledger/payments", second)
	if w.Code != http.StatusCreated || !strings.Contains(string(env.Data), `"valorPago":150`) || !strings.Contains(string(env.Data), `"diferenca":50`) {
		t.Fatalf("merge = %d %s", w.Code, env.Data)
	}
	if mem.Saves(ledgerPath) != 2 {
		t.Errorf("saves = %d", mem.Saves(ledgerPath))
	}

	w, env = do(t, router, http.MethodPost, "/api/v1/ledger/payments", `{"fornecedor":"Acme","ano":"2031","mes":"MAIO"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unmapped year = %d %+v", w.Code, env)
	}

	w, env = do(t, router, http.MethodGet, "/api/v1/ledger?month=JANEIRO", "")
	var entries []map[string]any
	json.Unmarshal(env.Data, &entries)
	if w.Code != http.StatusOK || len(entries) != 1 {
		t.Errorf("list = %d %s", w.Code, env.Data)
	}

	w, _ = do(t, router, http.MethodPut, "/api/v1/ledger/2025/FEVEREIRO", `{"lancamentos":[{"fornecedor":"Beta","valorEstimado":10}]}`)
	if w.Code != http.StatusOK {
		t.Errorf("replace = %d", w.Code)
	}
	w, env = do(t, router, http.MethodGet, "/api/v1/ledger/summary", "")
	if w.Code != http.StatusOK || !strings.Contains(string(env.Data), `"mes":"FEVEREIRO"`) {
		t.Errorf("summary = %d %s", w.Code, env.Data)
	}

	w, _ = do(t, router, http.MethodPost, "/api/v1/ledger/save", "")
	if w.Code != http.StatusOK || mem.Saves(ledgerPath) != 3 {
		t.Errorf("save = %d, saves = %d", w.Code, mem.Saves(ledgerPath))
	}
}

func TestFetchFailureIsAWarning(t *testing.T) {
	router, mem := setup(t, nil)
	mem.Put(suppliersPath, []byte("corrompido"))

	w, env := do(t, router, http.MethodGet, "/api/v1/suppliers", "")
	if w.Code != http.StatusOK || env.Status != "warning" || string(env.Data) != `{"fornecedores":[]}` {
		t.Errorf("list = %d %+v %s", w.Code, env, env.Data)
	}
}

func TestAuthAndSessions(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3nha"), bcrypt.MinCost)
	router, _ := setup(t, map[string]string{"maria": string(hash)})

	w, _ := do(t, router, http.MethodGet, "/api/v1/suppliers", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("without token = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodPost, "/api/v1/login", `{"username":"maria","password":"x"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", w.Code)
	}

	login := func() string {
		_, env := do(t, router, http.MethodPost, "/api/v1/login", `{"username":"maria","password":"s3nha"}`)
		var data struct {
			Token string `json:"token"`
		}
		json.Unmarshal(env.Data, &data)
		if data.Token == "" {
			t.Fatal("empty token")
		}
		return "Bearer " + data.Token
	}
	first, second := login(), login()

	do(t, router, http.MethodPost, "/api/v1/suppliers", `{"nome":"Acme"}`, "Authorization", first)
	do(t, router, http.MethodPut, "/api/v1/suppliers/Acme", `{"geral":{"centroDeCusto":"SO-NA-PRIMEIRA"},"linhas":[{}]}`, "Authorization", first)

	_, env := do(t, router, http.MethodGet, "/api/v1/suppliers/Acme", "", "Authorization", second)
	if strings.Contains(string(env.Data), "SO-NA-PRIMEIRA") {
		t.Error("staged edits must stay in their own session")
	}

	do(t, router, http.MethodPost, "/api/v1/session/reload", "", "Authorization", first)
	_, env = do(t, router, http.MethodGet, "/api/v1/suppliers/Acme", "", "Authorization", first)
	if strings.Contains(string(env.Data), "SO-NA-PRIMEIRA") {
		t.Error("reload must drop staged edits")
	}
}

func TestIDSuggestions(t *testing.T) {
	router, _ := setup(t, nil)
	_, env := do(t, router, http.MethodGet, "/api/v1/ids/supplier?name=Synvia", "")
	if !strings.Contains(string(env.Data), `"id":"SYN`) {
		t.Errorf("supplier id = %s", env.Data)
	}
	_, env = do(t, router, http.MethodGet, "/api/v1/ids/product?description=&category=x", "")
	if string(env.Data) != `{"id":""}` {
		t.Errorf("product id = %s", env.Data)
	}
}
