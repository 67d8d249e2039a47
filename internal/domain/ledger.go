package domain

import "strings"

// --- Modelos do controle mensal de pagamentos ---

// Colunas das abas mensais.
const (
	ColDiaVencimento = "Dia de Vencimento"
	ColDataEnvio     = "Data de Envio"
	ColDataPagamento = "Data de Pagamento"
	ColPrevisto      = "Previsto"
	ColMoeda         = "Moeda"
	ColValorEstimado = "Valor Estimado"
	ColValorPago     = "Valor Pago"
	ColDiferenca     = "Diferença"
	ColAno           = "Ano"
	ColMes           = "Mês"
)

// LedgerColumns é a ordem de gravação das abas mensais.
var LedgerColumns = []string{
	ColFornecedor,
	ColIDFornecedor,
	ColIDPagamento,
	ColCategoria,
	ColDiaVencimento,
	ColDataEnvio,
	ColDataPagamento,
	ColMetodoPagamento,
	ColStatusPagamento,
	ColPrevisto,
	ColMoeda,
	ColValorEstimado,
	ColValorPago,
	ColDiferenca,
	ColObservacoes,
	ColAno,
	ColMes,
}

// LedgerDateColumns são convertidas para texto antes da gravação.
var LedgerDateColumns = []string{ColDataEnvio, ColDataPagamento}

// Months são os nomes canônicos dos meses, na ordem usada para ordenar e
// particionar as abas.
var Months = []string{
	"JANEIRO", "FEVEREIRO", "MARÇO", "ABRIL", "MAIO", "JUNHO",
	"JULHO", "AGOSTO", "SETEMBRO", "OUTUBRO", "NOVEMBRO", "DEZEMBRO",
}

// MonthIndex retorna a posição do mês (0..11); meses desconhecidos retornam 12.
func MonthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i
		}
	}
	return len(Months)
}

// CanonicalMonth normaliza o nome do mês (maiúsculas, sem espaços nas pontas).
func CanonicalMonth(name string) (string, bool) {
	m := strings.ToUpper(strings.TrimSpace(name))
	if MonthIndex(m) == len(Months) {
		return m, false
	}
	return m, true
}

// PaymentStatus é o status de um lançamento.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDENTE"
	StatusPaid    PaymentStatus = "PAGO"
)

// MergeMode define o que fazer quando já existe lançamento com a mesma chave.
type MergeMode string

const (
	MergeWithExisting MergeMode = "merge"
	CreateNew         MergeMode = "new"
)

// LedgerEntry é um lançamento de pagamento.
type LedgerEntry struct {
	Supplier      string            `json:"fornecedor"`
	SupplierID    string            `json:"idFornecedor"`
	PaymentID     string            `json:"idPagamento"`
	Category      string            `json:"categoria"`
	DueDay        string            `json:"diaVencimento"`
	SendDate      string            `json:"dataEnvio"`
	PaymentDate   string            `json:"dataPagamento"`
	PaymentMethod string            `json:"metodoPagamento"`
	Status        PaymentStatus     `json:"statusPagamento"`
	Planned       string            `json:"previsto"`
	Currency      string            `json:"moeda"`
	Estimated     Money             `json:"valorEstimado"`
	Paid          Money             `json:"valorPago"`
	Difference    Money             `json:"diferenca"`
	Notes         string            `json:"observacoes"`
	Year          string            `json:"ano"`
	Month         string            `json:"mes"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// SameKey informa se os dois lançamentos têm a mesma chave (pagamento, ano, mês).
func (e *LedgerEntry) SameKey(o *LedgerEntry) bool {
	return e.PaymentID == o.PaymentID && e.Year == o.Year && e.Month == o.Month
}

// RecomputeDifference aplica diferença = estimado - pago.
func (e *LedgerEntry) RecomputeDifference() {
	e.Difference = e.Estimated.Sub(e.Paid)
}

// Cell retorna o valor da coluna pronto para a planilha.
func (e *LedgerEntry) Cell(col string) any {
	switch col {
	case ColFornecedor:
		return e.Supplier
	case ColIDFornecedor:
		return e.SupplierID
	case ColIDPagamento:
		return e.PaymentID
	case ColCategoria:
		return e.Category
	case ColDiaVencimento:
		return e.DueDay
	case ColDataEnvio:
		return e.SendDate
	case ColDataPagamento:
		return e.PaymentDate
	case ColMetodoPagamento:
		return e.PaymentMethod
	case ColStatusPagamento:
		return string(e.Status)
	case ColPrevisto:
		return e.Planned
	case ColMoeda:
		return e.Currency
	case ColValorEstimado:
		return e.Estimated.Cell()
	case ColValorPago:
		return e.Paid.Cell()
	case ColDiferenca:
		return e.Difference.Cell()
	case ColObservacoes:
		return e.Notes
	case ColAno:
		return e.Year
	case ColMes:
		return e.Month
	}
	return e.Extra[col]
}

// Set atribui o texto bruto de uma célula à coluna correspondente.
func (e *LedgerEntry) Set(col, raw string) {
	switch col {
	case ColFornecedor:
		e.Supplier = raw
	case ColIDFornecedor:
		e.SupplierID = raw
	case ColIDPagamento:
		e.PaymentID = raw
	case ColCategoria:
		e.Category = raw
	case ColDiaVencimento:
		e.DueDay = raw
	case ColDataEnvio:
		e.SendDate = raw
	case ColDataPagamento:
		e.PaymentDate = raw
	case ColMetodoPagamento:
		e.PaymentMethod = raw
	case ColStatusPagamento:
		e.Status = PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	case ColPrevisto:
		e.Planned = raw
	case ColMoeda:
		e.Currency = raw
	case ColValorEstimado:
		e.Estimated = ParseMoney(raw)
	case ColValorPago:
		e.Paid = ParseMoney(raw)
	case ColDiferenca:
		e.Difference = ParseMoney(raw)
	case ColObservacoes:
		e.Notes = raw
	case ColAno:
		e.Year = raw
	case ColMes:
		e.Month = raw
	default:
		if e.Extra == nil {
			e.Extra = make(map[string]string)
		}
		e.Extra[col] = raw
	}
}

// PeriodSummary totaliza os lançamentos de um (ano, mês).
type PeriodSummary struct {
	Year       string `json:"ano"`
	Month      string `json:"mes"`
	Entries    int    `json:"lancamentos"`
	Pending    int    `json:"pendentes"`
	Estimated  Money  `json:"valorEstimado"`
	Paid       Money  `json:"valorPago"`
	Difference Money  `json:"diferenca"`
}
