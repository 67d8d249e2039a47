package handlers

import (
	"fmt"
	"net/http"
	"time"

	"supplier-service/internal/api/responses"
	"supplier-service/internal/core/ledger"
	"supplier-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// LedgerHandler lida com as requisições do controle mensal de pagamentos.
type LedgerHandler struct {
	sessions Sessions
}

// NewLedgerHandler cria um novo handler do controle mensal.
func NewLedgerHandler(sessions Sessions) *LedgerHandler {
	return &LedgerHandler{sessions: sessions}
}

type RegisterPaymentRequest struct {
	domain.LedgerEntry
	Mode domain.MergeMode `json:"modo"`
}

type ReplacePeriodRequest struct {
	Entries []domain.LedgerEntry `json:"lancamentos"`
}

// HandleList devolve os lançamentos, com filtros opcionais de ano, mês e fornecedor.
func (h *LedgerHandler) HandleList(c *gin.Context) {
	filter := ledger.Filter{
		Year:     c.Query("year"),
		Month:    c.Query("month"),
		Supplier: c.Query("supplier"),
	}
	entries, err := h.sessions.Get(sessionID(c)).Ledger.Entries(c.Request.Context(), filter)
	respondRead(c, entries, err, "")
}

// HandleYears devolve os anos configurados.
func (h *LedgerHandler) HandleYears(c *gin.Context) {
	responses.Success(c, gin.H{"anos": h.sessions.Get(sessionID(c)).Ledger.Years(), "meses": domain.Months}, "")
}

// HandleSummary devolve os totais por período.
func (h *LedgerHandler) HandleSummary(c *gin.Context) {
	summary, err := h.sessions.Get(sessionID(c)).Ledger.Summary(c.Request.Context())
	respondRead(c, summary, err, "")
}

// HandleRegisterPayment registra o pagamento e grava o documento do ano.
func (h *LedgerHandler) HandleRegisterPayment(c *gin.Context) {
	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = domain.CreateNew
	}
	entry, err := h.sessions.Get(sessionID(c)).Ledger.RegisterPayment(c.Request.Context(), req.LedgerEntry, req.Mode)
	respondWrite(c, http.StatusCreated, entry, err, "Pagamento registrado")
}

// HandleReplacePeriod substitui os lançamentos de um mês; use /ledger/save para gravar.
func (h *LedgerHandler) HandleReplacePeriod(c *gin.Context) {
	var req ReplacePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	entries, err := h.sessions.Get(sessionID(c)).Ledger.ReplacePeriod(c.Request.Context(), c.Param("year"), c.Param("month"), req.Entries)
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	responses.Success(c, entries, "Alterações aplicadas; salve para gravar no documento")
}

// HandleSave grava os documentos de todos os anos carregados.
func (h *LedgerHandler) HandleSave(c *gin.Context) {
	err := h.sessions.Get(sessionID(c)).Ledger.Save(c.Request.Context())
	respondWrite(c, http.StatusOK, nil, err, "Controle mensal salvo")
}

// HandleExport baixa o .xlsx de um ano.
func (h *LedgerHandler) HandleExport(c *gin.Context) {
	year := c.Query("year")
	data, err := h.sessions.Get(sessionID(c)).Ledger.Export(c.Request.Context(), year)
	if err != nil {
		responses.FromError(c, err, nil)
		return
	}
	fileName := fmt.Sprintf("ControleMensal_%s_%s.xlsx", year, time.Now().Format(exportTimestamp))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, xlsxContentType, data)
}
