package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"supplier-service/internal/api/responses"
	"supplier-service/internal/core/idgen"
	"supplier-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// SupplierHandler lida com as requisições do cadastro de fornecedores.
type SupplierHandler struct {
	sessions Sessions
}

// NewSupplierHandler cria um novo handler de fornecedores.
func NewSupplierHandler(sessions Sessions) *SupplierHandler {
	return &SupplierHandler{sessions: sessions}
}

type CreateSupplierRequest struct {
	Name    string               `json:"nome"`
	General domain.GeneralFields `json:"geral"`
	Product domain.ProductFields `json:"produto"`
}

type UpdateSupplierRequest struct {
	General domain.GeneralFields `json:"geral"`
	Rows    []domain.SupplierRow `json:"linhas"`
}

// HandleList devolve os nomes dos fornecedores.
func (h *SupplierHandler) HandleList(c *gin.Context) {
	names, err := h.sessions.Get(sessionID(c)).Suppliers.Names(c.Request.Context())
	respondRead(c, gin.H{"fornecedores": names}, err, "")
}

// HandleGet devolve as linhas de um fornecedor.
func (h *SupplierHandler) HandleGet(c *gin.Context) {
	rs, err := h.sessions.Get(sessionID(c)).Suppliers.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	responses.Success(c, rs, "")
}

// HandleCreate cria o fornecedor e grava o documento.
func (h *SupplierHandler) HandleCreate(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	rs, err := h.sessions.Get(sessionID(c)).Suppliers.Create(c.Request.Context(), name, req.General, req.Product)
	respondWrite(c, http.StatusCreated, rs, err, fmt.Sprintf("Fornecedor %q criado", name))
}

// HandleUpdate aplica a edição em memória; use /suppliers/save para gravar.
func (h *SupplierHandler) HandleUpdate(c *gin.Context) {
	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	rs, err := h.sessions.Get(sessionID(c)).Suppliers.Update(c.Request.Context(), c.Param("name"), req.General, req.Rows)
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	responses.Success(c, rs, "Alterações aplicadas; salve para gravar no documento")
}

// HandleDelete remove o fornecedor e grava o documento.
func (h *SupplierHandler) HandleDelete(c *gin.Context) {
	name := c.Param("name")
	err := h.sessions.Get(sessionID(c)).Suppliers.Delete(c.Request.Context(), name)
	respondWrite(c, http.StatusOK, nil, err, fmt.Sprintf("Fornecedor %q removido", name))
}

// HandleSave grava todas as abas de fornecedores.
func (h *SupplierHandler) HandleSave(c *gin.Context) {
	err := h.sessions.Get(sessionID(c)).Suppliers.Save(c.Request.Context())
	respondWrite(c, http.StatusOK, nil, err, "Dados salvos")
}

// HandleCombined devolve a lista unificada com a aba de origem.
func (h *SupplierHandler) HandleCombined(c *gin.Context) {
	rows, err := h.sessions.Get(sessionID(c)).Suppliers.Combined(c.Request.Context())
	respondRead(c, rows, err, "")
}

// HandleCombinedCSV baixa a lista unificada em CSV.
func (h *SupplierHandler) HandleCombinedCSV(c *gin.Context) {
	data, err := h.sessions.Get(sessionID(c)).Suppliers.CombinedCSV(c.Request.Context())
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	fileName := fmt.Sprintf("ListaFornecedores_%s.csv", time.Now().Format(exportTimestamp))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv; charset=windows-1252", data)
}

// HandleExport baixa o .xlsx do estado atual da sessão.
func (h *SupplierHandler) HandleExport(c *gin.Context) {
	data, err := h.sessions.Get(sessionID(c)).Suppliers.Export(c.Request.Context())
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	fileName := fmt.Sprintf("Fornecedores_%s.xlsx", time.Now().Format(exportTimestamp))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// HandleImport recebe uma planilha (.xls ou .xlsx) e adiciona as abas novas.
func (h *SupplierHandler) HandleImport(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo Excel (.xls, .xlsx) não encontrado ou inválido")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xls" && ext != ".xlsx" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo excel não suportada: %s", ext))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo Excel")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível ler o arquivo Excel")
		return
	}

	result, err := h.sessions.Get(sessionID(c)).Suppliers.Import(c.Request.Context(), data)
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	responses.Success(c, result, "Planilha importada; salve para gravar no documento")
}

// HandleSupplierID sugere um ID de fornecedor.
func (h *SupplierHandler) HandleSupplierID(c *gin.Context) {
	responses.Success(c, gin.H{"id": idgen.SupplierID(c.Query("name"))}, "")
}

// HandleProductID sugere um ID de produto.
func (h *SupplierHandler) HandleProductID(c *gin.Context) {
	responses.Success(c, gin.H{"id": idgen.ProductID(c.Query("description"), c.Query("category"))}, "")
}
