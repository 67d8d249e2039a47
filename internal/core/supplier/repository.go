package supplier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"supplier-service/internal/core/idgen"
	"supplier-service/internal/core/normalizer"
	"supplier-service/internal/core/store"
	"supplier-service/internal/domain"

	"github.com/schollz/closestmatch"
	"go.uber.org/zap"
)

// Repository mantém em memória as abas de fornecedores de uma sessão.
// A primeira leitura busca o documento remoto; gravações reescrevem o documento inteiro.
type Repository interface {
	Load(ctx context.Context) error
	Names(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (domain.RecordSet, error)
	Create(ctx context.Context, name string, general domain.GeneralFields, first domain.ProductFields) (domain.RecordSet, error)
	Update(ctx context.Context, name string, general domain.GeneralFields, rows []domain.SupplierRow) (domain.RecordSet, error)
	Delete(ctx context.Context, name string) error
	Import(ctx context.Context, data []byte) (ImportResult, error)
	Save(ctx context.Context) error
	Combined(ctx context.Context) ([]CombinedRow, error)
	CombinedCSV(ctx context.Context) ([]byte, error)
	Export(ctx context.Context) ([]byte, error)
	Suggest(ctx context.Context, name string) string
}

// CombinedRow é uma linha da lista unificada, com a aba de origem.
type CombinedRow struct {
	Sheet string `json:"aba"`
	domain.SupplierRow
}

// ImportResult lista as abas importadas e as ignoradas de uma planilha enviada.
type ImportResult struct {
	Imported []string `json:"importadas"`
	Skipped  []string `json:"ignoradas"`
}

type repository struct {
	store  store.Service
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	loaded bool
	// order guarda a ordem das abas do documento, incluindo as reservadas.
	order    []string
	sets     map[string]*domain.RecordSet
	reserved map[string]store.Sheet
}

// NewRepository cria o repositório do documento em path.
func NewRepository(svc store.Service, path string, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &repository{
		store:    svc,
		path:     path,
		logger:   logger.With(zap.String("repository", "fornecedores")),
		sets:     make(map[string]*domain.RecordSet),
		reserved: make(map[string]store.Sheet),
	}
}

// ---------------------- carga ----------------------

func (r *repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *repository) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	return r.load(ctx)
}

// load substitui o estado pelo conteúdo remoto. Em caso de falha o estado fica
// vazio e não carregado, e o próximo acesso tenta de novo.
func (r *repository) load(ctx context.Context) error {
	r.order = nil
	r.sets = make(map[string]*domain.RecordSet)
	r.reserved = make(map[string]store.Sheet)
	r.loaded = false

	doc, err := r.store.FetchDocument(ctx, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("documento de fornecedores não existe; iniciando vazio", zap.String("path", r.path))
			r.loaded = true
			return nil
		}
		return err
	}

	for _, sheet := range doc.Sheets {
		r.order = append(r.order, sheet.Name)
		if domain.IsReservedSheet(sheet.Name) {
			r.reserved[sheet.Name] = sheet
			continue
		}
		rs := recordSetFromSheet(sheet)
		r.sets[sheet.Name] = &rs
	}
	r.loaded = true
	r.logger.Info("fornecedores carregados", zap.Int("fornecedores", len(r.sets)))
	return nil
}

func recordSetFromSheet(sheet store.Sheet) domain.RecordSet {
	rs := domain.RecordSet{Name: sheet.Name}
	known := make(map[string]bool, len(domain.SupplierColumns))
	for _, c := range domain.SupplierColumns {
		known[c] = true
	}
	for _, c := range sheet.Columns {
		if !known[c] {
			rs.ExtraColumns = append(rs.ExtraColumns, c)
		}
	}

	for _, cells := range sheet.Rows {
		var row domain.SupplierRow
		for j, col := range sheet.Columns {
			if j < len(cells) {
				row.Set(col, fmt.Sprint(cells[j]))
			}
		}
		normalizeRow(&row)
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

// normalizeRow força CNPJ e Contato para texto e as datas para DD/MM/AAAA.
// Aplicar duas vezes não altera o resultado.
func normalizeRow(row *domain.SupplierRow) {
	row.TaxID = normalizer.CoerceText(row.TaxID)
	row.Contact = normalizer.CoerceText(row.Contact)
	row.ContractStart = normalizer.DateCellText(row.ContractStart)
	row.ContractEnd = normalizer.DateCellText(row.ContractEnd)
	row.PaymentStart = normalizer.DateCellText(row.PaymentStart)
}

// ---------------------- consultas ----------------------

func (r *repository) Names(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return []string{}, err
	}
	return r.names(), nil
}

func (r *repository) names() []string {
	names := make([]string, 0, len(r.sets))
	for _, name := range r.order {
		if _, ok := r.sets[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (r *repository) Get(ctx context.Context, name string) (domain.RecordSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return domain.RecordSet{}, err
	}
	rs, ok := r.sets[name]
	if !ok {
		return domain.RecordSet{}, r.notFound(name)
	}
	return rs.Clone(), nil
}

func (r *repository) Combined(ctx context.Context) ([]CombinedRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return []CombinedRow{}, err
	}
	return r.combined(), nil
}

func (r *repository) combined() []CombinedRow {
	rows := []CombinedRow{}
	for _, name := range r.names() {
		for _, row := range r.sets[name].Clone().Rows {
			rows = append(rows, CombinedRow{Sheet: name, SupplierRow: row})
		}
	}
	return rows
}

func (r *repository) Suggest(ctx context.Context, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return ""
	}
	return r.suggest(name)
}

// suggest procura o nome mais parecido, ignorando maiúsculas.
func (r *repository) suggest(name string) string {
	names := r.names()
	if len(names) == 0 || strings.TrimSpace(name) == "" {
		return ""
	}
	byKey := make(map[string]string, len(names))
	keys := make([]string, 0, len(names))
	for _, n := range names {
		k := strings.ToLower(n)
		byKey[k] = n
		keys = append(keys, k)
	}
	cm := closestmatch.New(keys, []int{2, 3})
	return byKey[cm.Closest(strings.ToLower(name))]
}

func (r *repository) notFound(name string) error {
	return &domain.NotFoundError{Kind: "fornecedor", Name: name, Suggestion: r.suggest(name)}
}

// ---------------------- alterações ----------------------

// Create cria o fornecedor com uma linha e grava imediatamente. Se a gravação
// falhar o fornecedor continua em memória e o erro é devolvido.
//
// A unicidade vai além da comparação exata de nomes: como o Excel não
// diferencia maiúsculas de minúsculas em nomes de aba, "acme" é recusado quando
// "Acme" existe, com uma mensagem própria para esse caso.
func (r *repository) Create(ctx context.Context, name string, general domain.GeneralFields, first domain.ProductFields) (domain.RecordSet, error) {
	if err := domain.ValidateSheetName(name); err != nil {
		return domain.RecordSet{}, err
	}
	if domain.IsReservedSheet(name) {
		return domain.RecordSet{}, domain.NewValidationError(domain.ColFornecedor, fmt.Sprintf("o nome %q é reservado para abas de modelo", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return domain.RecordSet{}, err
	}

	if _, exists := r.sets[name]; exists {
		return domain.RecordSet{}, domain.NewValidationError(domain.ColFornecedor, fmt.Sprintf("fornecedor %q já existe", name))
	}
	if r.hasSheet(name) {
		return domain.RecordSet{}, domain.NewValidationError(domain.ColFornecedor, fmt.Sprintf("já existe uma aba com o nome %q (maiúsculas e minúsculas não diferenciam abas)", name))
	}

	general.Supplier = name
	if general.SupplierID == "" {
		general.SupplierID = idgen.SupplierID(name)
	}
	if first.ProductID == "" {
		first.ProductID = idgen.ProductID(first.Description, first.Category)
	}
	row := domain.SupplierRow{GeneralFields: general, ProductFields: first}
	normalizeRow(&row)

	rs := &domain.RecordSet{Name: name, Rows: []domain.SupplierRow{row}}
	r.sets[name] = rs
	r.order = append(r.order, name)
	r.logger.Info("fornecedor criado", zap.String("fornecedor", name), zap.String("id", general.SupplierID))

	if err := r.save(ctx); err != nil {
		return rs.Clone(), err
	}
	return rs.Clone(), nil
}

// Update substitui as linhas do fornecedor. Os dados gerais informados são
// replicados em todas as linhas. A alteração só vai para o documento no Save.
func (r *repository) Update(ctx context.Context, name string, general domain.GeneralFields, rows []domain.SupplierRow) (domain.RecordSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return domain.RecordSet{}, err
	}
	rs, ok := r.sets[name]
	if !ok {
		return domain.RecordSet{}, r.notFound(name)
	}

	if strings.TrimSpace(general.Supplier) == "" {
		general.Supplier = name
	}
	updated := domain.RecordSet{Name: name, ExtraColumns: rs.ExtraColumns}
	updated.Rows = append([]domain.SupplierRow(nil), rows...)
	updated.Broadcast(general)
	for i := range updated.Rows {
		normalizeRow(&updated.Rows[i])
	}
	*rs = updated.Clone()
	return rs.Clone(), nil
}

// Delete remove a aba do fornecedor e grava imediatamente.
func (r *repository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	if _, ok := r.sets[name]; !ok {
		return r.notFound(name)
	}

	delete(r.sets, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("fornecedor removido", zap.String("fornecedor", name))
	return r.save(ctx)
}

// Import adiciona as abas de uma planilha enviada (.xlsx ou .xls) como novos
// fornecedores. Abas reservadas, com nome inválido ou já existentes são
// ignoradas. A importação só vai para o documento no Save.
func (r *repository) Import(ctx context.Context, data []byte) (ImportResult, error) {
	doc, err := store.DecodeDocument(data)
	if err != nil {
		return ImportResult{}, domain.NewValidationError("arquivo", fmt.Sprintf("não foi possível ler a planilha: %v", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Imported: []string{}, Skipped: []string{}}
	for _, sheet := range doc.Sheets {
		if domain.IsReservedSheet(sheet.Name) || domain.ValidateSheetName(sheet.Name) != nil || r.hasSheet(sheet.Name) {
			result.Skipped = append(result.Skipped, sheet.Name)
			continue
		}
		rs := recordSetFromSheet(sheet)
		r.sets[sheet.Name] = &rs
		r.order = append(r.order, sheet.Name)
		result.Imported = append(result.Imported, sheet.Name)
	}
	r.logger.Info("planilha importada", zap.Strings("importadas", result.Imported), zap.Strings("ignoradas", result.Skipped))
	return result, nil
}

// hasSheet compara sem diferenciar maiúsculas, como o Excel faz com abas.
func (r *repository) hasSheet(name string) bool {
	for _, existing := range r.order {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

// ---------------------- gravação ----------------------

func (r *repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		if err := r.load(ctx); err != nil {
			return err
		}
	}
	return r.save(ctx)
}

func (r *repository) save(ctx context.Context) error {
	return r.store.SaveDocument(ctx, r.path, r.document())
}

// document monta as abas na ordem original. Abas reservadas voltam intactas;
// sem nenhuma aba grava-se só o MODELO com o cabeçalho.
func (r *repository) document() *store.Document {
	doc := &store.Document{}
	for _, name := range r.order {
		if sheet, ok := r.reserved[name]; ok {
			doc.Sheets = append(doc.Sheets, sheet)
			continue
		}
		rs, ok := r.sets[name]
		if !ok {
			continue
		}
		for i := range rs.Rows {
			normalizeRow(&rs.Rows[i])
		}
		doc.Sheets = append(doc.Sheets, sheetFromRecordSet(rs))
	}
	if len(doc.Sheets) == 0 {
		doc.Sheets = append(doc.Sheets, store.Sheet{
			Name:    domain.SheetModelo,
			Columns: append([]string(nil), domain.SupplierColumns...),
		})
	}
	return doc
}

func sheetFromRecordSet(rs *domain.RecordSet) store.Sheet {
	sheet := store.Sheet{Name: rs.Name, Columns: rs.Columns()}
	for i := range rs.Rows {
		cells := make([]any, len(sheet.Columns))
		for j, col := range sheet.Columns {
			cells[j] = rs.Rows[i].Cell(col)
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet
}

// Export gera o .xlsx do estado atual, sem gravar no documento remoto.
func (r *repository) Export(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return store.EncodeDocument(r.document())
}
