// package domain/models.go
package domain

import (
	"strings"
	"unicode/utf8"
)

// --- Colunas das planilhas de fornecedores ---

// Colunas gerais, iguais em todas as linhas de um fornecedor.
const (
	ColFornecedor    = "Fornecedor"
	ColIDFornecedor  = "ID - Fornecedor"
	ColCNPJ          = "CNPJ"
	ColContato       = "Contato"
	ColCentroDeCusto = "Centro de custo"
)

// Colunas específicas de cada produto/serviço.
const (
	ColNumeroServico   = "Nº do Serviço"
	ColIDProduto       = "ID - Produto"
	ColDescricao       = "Descrição do Produto"
	ColCategoria       = "Categoria"
	ColLocalidade      = "Localidade"
	ColStatus          = "Status"
	ColInicioContrato  = "Inicio do contrato"
	ColTerminoContrato = "Termino do contrato"
	ColMetodoPagamento = "Metodo de pagamento"
	ColTipoPagamento   = "Tipo de pagamento"
	ColDiaPagamento    = "Dia de Pagamento"
	ColIDPagamento     = "ID - Pagamento"
	ColStatusPagamento = "Status de Pagamento"
	ColOrcado          = "Orçado"
	ColValorMensal     = "Valor mensal"
	ColValorPlano      = "Valor do plano"
	ColObservacoes     = "Observações"
	ColTempoPagamento  = "Tempo de pagamento"
	ColInicioPagamento = "Inicio do pagamento"
)

// ColAba identifica a aba de origem na lista unificada de fornecedores.
const ColAba = "Aba"

// GeneralColumns lista as colunas gerais na ordem de gravação.
var GeneralColumns = []string{
	ColFornecedor,
	ColIDFornecedor,
	ColCNPJ,
	ColContato,
	ColCentroDeCusto,
}

// SpecificColumns lista as colunas de produto na ordem de gravação.
var SpecificColumns = []string{
	ColNumeroServico,
	ColIDProduto,
	ColDescricao,
	ColCategoria,
	ColLocalidade,
	ColStatus,
	ColInicioContrato,
	ColTerminoContrato,
	ColMetodoPagamento,
	ColTipoPagamento,
	ColDiaPagamento,
	ColIDPagamento,
	ColStatusPagamento,
	ColOrcado,
	ColValorMensal,
	ColValorPlano,
	ColObservacoes,
	ColTempoPagamento,
	ColInicioPagamento,
}

// SupplierColumns é o superconjunto fixo de colunas de uma aba de fornecedor.
var SupplierColumns = append(append([]string{}, GeneralColumns...), SpecificColumns...)

// SupplierDateColumns são gravadas como texto DD/MM/AAAA.
var SupplierDateColumns = []string{ColInicioContrato, ColTerminoContrato, ColInicioPagamento}

// SupplierTextColumns são forçadas para texto na carga.
var SupplierTextColumns = []string{ColCNPJ, ColContato}

// Abas de modelo que não representam fornecedores.
const (
	SheetMatriz = "MATRIZ"
	SheetModelo = "MODELO"
)

// IsReservedSheet informa se a aba é um modelo (MATRIZ/MODELO).
func IsReservedSheet(name string) bool {
	return name == SheetMatriz || name == SheetModelo
}

// GeneralFields são os dados gerais do fornecedor.
type GeneralFields struct {
	Supplier   string `json:"fornecedor"`
	SupplierID string `json:"idFornecedor"`
	TaxID      string `json:"cnpj"`
	Contact    string `json:"contato"`
	CostCenter string `json:"centroDeCusto"`
}

// ProductFields são os dados de um produto/serviço do fornecedor.
type ProductFields struct {
	ServiceNumber string `json:"numeroServico"`
	ProductID     string `json:"idProduto"`
	Description   string `json:"descricao"`
	Category      string `json:"categoria"`
	Locality      string `json:"localidade"`
	Status        string `json:"status"`
	ContractStart string `json:"inicioContrato"`
	ContractEnd   string `json:"terminoContrato"`
	PaymentMethod string `json:"metodoPagamento"`
	PaymentType   string `json:"tipoPagamento"`
	PaymentDay    string `json:"diaPagamento"`
	PaymentID     string `json:"idPagamento"`
	PaymentStatus string `json:"statusPagamento"`
	Budgeted      string `json:"orcado"`
	MonthlyValue  Money  `json:"valorMensal"`
	PlanValue     Money  `json:"valorPlano"`
	Notes         string `json:"observacoes"`
	PaymentTerms  string `json:"tempoPagamento"`
	PaymentStart  string `json:"inicioPagamento"`
}

// SupplierRow é uma linha da aba do fornecedor. Extra guarda colunas fora do
// esquema para que voltem intactas na gravação.
type SupplierRow struct {
	GeneralFields
	ProductFields
	Extra map[string]string `json:"extra,omitempty"`
}

// Cell retorna o valor da coluna pronto para a planilha.
func (r *SupplierRow) Cell(col string) any {
	switch col {
	case ColFornecedor:
		return r.Supplier
	case ColIDFornecedor:
		return r.SupplierID
	case ColCNPJ:
		return r.TaxID
	case ColContato:
		return r.Contact
	case ColCentroDeCusto:
		return r.CostCenter
	case ColNumeroServico:
		return r.ServiceNumber
	case ColIDProduto:
		return r.ProductID
	case ColDescricao:
		return r.Description
	case ColCategoria:
		return r.Category
	case ColLocalidade:
		return r.Locality
	case ColStatus:
		return r.Status
	case ColInicioContrato:
		return r.ContractStart
	case ColTerminoContrato:
		return r.ContractEnd
	case ColMetodoPagamento:
		return r.PaymentMethod
	case ColTipoPagamento:
		return r.PaymentType
	case ColDiaPagamento:
		return r.PaymentDay
	case ColIDPagamento:
		return r.PaymentID
	case ColStatusPagamento:
		return r.PaymentStatus
	case ColOrcado:
		return r.Budgeted
	case ColValorMensal:
		return r.MonthlyValue.Cell()
	case ColValorPlano:
		return r.PlanValue.Cell()
	case ColObservacoes:
		return r.Notes
	case ColTempoPagamento:
		return r.PaymentTerms
	case ColInicioPagamento:
		return r.PaymentStart
	}
	return r.Extra[col]
}

// Set atribui o texto bruto de uma célula à coluna correspondente.
func (r *SupplierRow) Set(col, raw string) {
	switch col {
	case ColFornecedor:
		r.Supplier = raw
	case ColIDFornecedor:
		r.SupplierID = raw
	case ColCNPJ:
		r.TaxID = raw
	case ColContato:
		r.Contact = raw
	case ColCentroDeCusto:
		r.CostCenter = raw
	case ColNumeroServico:
		r.ServiceNumber = raw
	case ColIDProduto:
		r.ProductID = raw
	case ColDescricao:
		r.Description = raw
	case ColCategoria:
		r.Category = raw
	case ColLocalidade:
		r.Locality = raw
	case ColStatus:
		r.Status = raw
	case ColInicioContrato:
		r.ContractStart = raw
	case ColTerminoContrato:
		r.ContractEnd = raw
	case ColMetodoPagamento:
		r.PaymentMethod = raw
	case ColTipoPagamento:
		r.PaymentType = raw
	case ColDiaPagamento:
		r.PaymentDay = raw
	case ColIDPagamento:
		r.PaymentID = raw
	case ColStatusPagamento:
		r.PaymentStatus = raw
	case ColOrcado:
		r.Budgeted = raw
	case ColValorMensal:
		r.MonthlyValue = ParseMoney(raw)
	case ColValorPlano:
		r.PlanValue = ParseMoney(raw)
	case ColObservacoes:
		r.Notes = raw
	case ColTempoPagamento:
		r.PaymentTerms = raw
	case ColInicioPagamento:
		r.PaymentStart = raw
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[col] = raw
	}
}

// RecordSet é o conjunto de linhas de um fornecedor (uma aba).
type RecordSet struct {
	Name         string        `json:"nome"`
	Rows         []SupplierRow `json:"linhas"`
	ExtraColumns []string      `json:"colunasExtras,omitempty"`
}

// General retorna os dados gerais da primeira linha.
func (rs *RecordSet) General() GeneralFields {
	if len(rs.Rows) == 0 {
		return GeneralFields{}
	}
	return rs.Rows[0].GeneralFields
}

// Broadcast replica os dados gerais em todas as linhas.
func (rs *RecordSet) Broadcast(g GeneralFields) {
	for i := range rs.Rows {
		rs.Rows[i].GeneralFields = g
	}
}

// Columns retorna as colunas do esquema seguidas das extras.
func (rs *RecordSet) Columns() []string {
	return append(append([]string{}, SupplierColumns...), rs.ExtraColumns...)
}

// Clone devolve uma cópia profunda.
func (rs RecordSet) Clone() RecordSet {
	out := RecordSet{Name: rs.Name}
	out.ExtraColumns = append([]string(nil), rs.ExtraColumns...)
	out.Rows = make([]SupplierRow, len(rs.Rows))
	for i, row := range rs.Rows {
		out.Rows[i] = row
		if row.Extra != nil {
			out.Rows[i].Extra = make(map[string]string, len(row.Extra))
			for k, v := range row.Extra {
				out.Rows[i].Extra[k] = v
			}
		}
	}
	return out
}

// --- Limites de nome de aba do Excel ---

const maxSheetNameLength = 31

// ValidateSheetName confere se o nome pode ser usado como aba do Excel.
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError(ColFornecedor, "é preciso informar um nome para o fornecedor")
	}
	if utf8.RuneCountInString(name) > maxSheetNameLength {
		return NewValidationError(ColFornecedor, "o nome deve ter no máximo 31 caracteres (limite de aba do Excel)")
	}
	if strings.ContainsAny(name, `:\/?*[]`) {
		return NewValidationError(ColFornecedor, `o nome não pode conter os caracteres : \ / ? * [ ]`)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return NewValidationError(ColFornecedor, "o nome não pode começar ou terminar com apóstrofo")
	}
	return nil
}
