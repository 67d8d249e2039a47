package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"supplier-service/internal/core/normalizer"
	"supplier-service/internal/core/store"
	"supplier-service/internal/domain"

	"go.uber.org/zap"
)

// Filter restringe a listagem de lançamentos. Campos vazios não filtram.
type Filter struct {
	Year     string
	Month    string
	Supplier string
}

// Repository é a tabela única de lançamentos de todos os anos configurados.
type Repository interface {
	Load(ctx context.Context) error
	Years() []string
	Entries(ctx context.Context, f Filter) ([]domain.LedgerEntry, error)
	RegisterPayment(ctx context.Context, entry domain.LedgerEntry, mode domain.MergeMode) (domain.LedgerEntry, error)
	ReplacePeriod(ctx context.Context, year, month string, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error)
	Summary(ctx context.Context) ([]domain.PeriodSummary, error)
	Save(ctx context.Context) error
	Export(ctx context.Context, year string) ([]byte, error)
}

type yearState struct {
	loaded bool
	// existed indica que o documento já existia no armazenamento remoto.
	existed bool
	// passthrough são as abas que não são meses (MATRIZ e outras), gravadas
	// de volta sem alteração.
	passthrough []store.Sheet
	// extraColumns guarda, por mês, as colunas fora do esquema na ordem da aba.
	extraColumns map[string][]string
}

type repository struct {
	store     store.Service
	documents map[string]string
	logger    *zap.Logger

	mu      sync.Mutex
	years   map[string]*yearState
	entries []domain.LedgerEntry
}

// NewRepository cria o repositório. documents mapeia ano → caminho do documento.
func NewRepository(svc store.Service, documents map[string]string, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &repository{
		store:     svc,
		documents: make(map[string]string, len(documents)),
		logger:    logger.With(zap.String("repository", "controle_mensal")),
		years:     make(map[string]*yearState),
	}
	for year, path := range documents {
		r.documents[strings.TrimSpace(year)] = path
	}
	return r
}

func (r *repository) Years() []string {
	years := make([]string, 0, len(r.documents))
	for y := range r.documents {
		years = append(years, y)
	}
	slices.SortFunc(years, compareYear)
	return years
}

func compareYear(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func compareEntries(a, b domain.LedgerEntry) int {
	if c := compareYear(a.Year, b.Year); c != 0 {
		return c
	}
	return cmp.Compare(domain.MonthIndex(a.Month), domain.MonthIndex(b.Month))
}

// ---------------------- carga ----------------------

// Load descarta o estado e busca todos os anos de novo.
func (r *repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.years = make(map[string]*yearState)
	r.entries = nil
	return r.ensureLoaded(ctx)
}

// ensureLoaded busca os anos ainda não carregados. Falhas de um ano não impedem
// os outros; os erros são devolvidos juntos e o ano é tentado de novo no próximo acesso.
func (r *repository) ensureLoaded(ctx context.Context) error {
	var errs []error
	for _, year := range r.Years() {
		if err := r.ensureYear(ctx, year); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *repository) ensureYear(ctx context.Context, year string) error {
	if st, ok := r.years[year]; ok && st.loaded {
		return nil
	}
	path := r.documents[year]
	st := &yearState{extraColumns: make(map[string][]string)}

	doc, err := r.store.FetchDocument(ctx, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.years[year] = st
			return err
		}
		r.logger.Warn("documento do ano não existe; iniciando vazio", zap.String("ano", year), zap.String("path", path))
		doc = &store.Document{}
	} else {
		st.existed = true
	}

	var loaded []domain.LedgerEntry
	for _, sheet := range doc.Sheets {
		month, ok := domain.CanonicalMonth(sheet.Name)
		if !ok {
			st.passthrough = append(st.passthrough, sheet)
			continue
		}
		for _, col := range sheet.Columns {
			if !ledgerColumn[col] && !slices.Contains(st.extraColumns[month], col) {
				st.extraColumns[month] = append(st.extraColumns[month], col)
			}
		}
		for _, cells := range sheet.Rows {
			var entry domain.LedgerEntry
			for j, col := range sheet.Columns {
				if j < len(cells) {
					entry.Set(col, fmt.Sprint(cells[j]))
				}
			}
			entry.Year = year
			entry.Month = month
			normalizeEntry(&entry)
			loaded = append(loaded, entry)
		}
	}

	st.loaded = true
	r.years[year] = st
	r.entries = append(r.entries, loaded...)
	slices.SortStableFunc(r.entries, compareEntries)
	r.logger.Info("controle mensal carregado", zap.String("ano", year), zap.Int("lancamentos", len(loaded)))
	return nil
}

var ledgerColumn = func() map[string]bool {
	m := make(map[string]bool, len(domain.LedgerColumns))
	for _, c := range domain.LedgerColumns {
		m[c] = true
	}
	return m
}()

func normalizeEntry(e *domain.LedgerEntry) {
	e.SendDate = normalizer.DateCellText(e.SendDate)
	e.PaymentDate = normalizer.DateCellText(e.PaymentDate)
}

// ---------------------- consultas ----------------------

// Entries devolve os lançamentos dos anos carregados. Se algum ano falhou, o
// erro vem junto com o que foi possível carregar.
func (r *repository) Entries(ctx context.Context, f Filter) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.ensureLoaded(ctx)

	month := strings.ToUpper(strings.TrimSpace(f.Month))
	supplier := strings.ToLower(strings.TrimSpace(f.Supplier))
	out := []domain.LedgerEntry{}
	for _, e := range r.entries {
		if f.Year != "" && e.Year != f.Year {
			continue
		}
		if month != "" && e.Month != month {
			continue
		}
		if supplier != "" && !strings.Contains(strings.ToLower(e.Supplier), supplier) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	return out, err
}

func cloneEntry(e domain.LedgerEntry) domain.LedgerEntry {
	if e.Extra != nil {
		extra := make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}
	return e
}

// Summary totaliza cada (ano, mês) na ordem de exibição.
func (r *repository) Summary(ctx context.Context) ([]domain.PeriodSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.ensureLoaded(ctx)

	out := []domain.PeriodSummary{}
	for _, e := range r.entries {
		if n := len(out); n == 0 || out[n-1].Year != e.Year || out[n-1].Month != e.Month {
			out = append(out, domain.PeriodSummary{Year: e.Year, Month: e.Month})
		}
		s := &out[len(out)-1]
		s.Entries++
		if e.Status != domain.StatusPaid {
			s.Pending++
		}
		s.Estimated = s.Estimated.Add(e.Estimated)
		s.Paid = s.Paid.Add(e.Paid)
		s.Difference = s.Estimated.Sub(s.Paid)
	}
	return out, err
}

// ---------------------- alterações ----------------------

func (r *repository) validatePeriod(year, month string) (string, string, error) {
	year = strings.TrimSpace(year)
	if _, ok := r.documents[year]; !ok {
		return "", "", domain.NewValidationError(domain.ColAno, fmt.Sprintf("ano %q não configurado (anos disponíveis: %s)", year, strings.Join(r.Years(), ", ")))
	}
	m, ok := domain.CanonicalMonth(month)
	if !ok {
		return "", "", domain.NewValidationError(domain.ColMes, fmt.Sprintf("mês inválido: %q", month))
	}
	return year, m, nil
}

func validateEntry(e *domain.LedgerEntry) error {
	if strings.TrimSpace(e.Supplier) == "" {
		return domain.NewValidationError(domain.ColFornecedor, "é preciso informar o fornecedor")
	}
	e.Status = domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(string(e.Status))))
	switch e.Status {
	case "":
		e.Status = domain.StatusPending
	case domain.StatusPending, domain.StatusPaid:
	default:
		return domain.NewValidationError(domain.ColStatusPagamento, fmt.Sprintf("status inválido: %q (use %s ou %s)", e.Status, domain.StatusPending, domain.StatusPaid))
	}
	return nil
}

// RegisterPayment inclui o lançamento e grava imediatamente. Em modo merge, um
// lançamento existente com o mesmo (pagamento, ano, mês) é substituído pela
// fusão: mantém o estimado, soma o pago e assume o novo dia de vencimento.
func (r *repository) RegisterPayment(ctx context.Context, entry domain.LedgerEntry, mode domain.MergeMode) (domain.LedgerEntry, error) {
	if mode != domain.MergeWithExisting && mode != domain.CreateNew {
		return domain.LedgerEntry{}, domain.NewValidationError("modo", fmt.Sprintf("modo inválido: %q", mode))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	year, month, err := r.validatePeriod(entry.Year, entry.Month)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := validateEntry(&entry); err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.Year, entry.Month = year, month
	entry.PaymentID = strings.TrimSpace(entry.PaymentID)
	normalizeEntry(&entry)
	entry.RecomputeDifference()

	if err := r.ensureYear(ctx, year); err != nil {
		return domain.LedgerEntry{}, err
	}

	result := entry
	merged := false
	if mode == domain.MergeWithExisting && entry.PaymentID != "" {
		for i := range r.entries {
			existing := r.entries[i]
			if !existing.SameKey(&entry) {
				continue
			}
			existing.Paid = existing.Paid.Add(entry.Paid)
			existing.DueDay = entry.DueDay
			existing.RecomputeDifference()
			r.entries = slices.Delete(r.entries, i, i+1)
			result = existing
			merged = true
			break
		}
	}
	r.entries = append(r.entries, result)
	slices.SortStableFunc(r.entries, compareEntries)

	r.logger.Info("pagamento registrado",
		zap.String("fornecedor", result.Supplier),
		zap.String("pagamento", result.PaymentID),
		zap.String("ano", year),
		zap.String("mes", month),
		zap.Bool("mesclado", merged),
	)

	if err := r.saveYear(ctx, year); err != nil {
		return cloneEntry(result), err
	}
	return cloneEntry(result), nil
}

// ReplacePeriod substitui todos os lançamentos de (ano, mês). Só vai para o
// documento no Save.
func (r *repository) ReplacePeriod(ctx context.Context, year, month string, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	year, month, err := r.validatePeriod(year, month)
	if err != nil {
		return nil, err
	}
	replaced := make([]domain.LedgerEntry, 0, len(entries))
	for i, e := range entries {
		e = cloneEntry(e)
		if err := validateEntry(&e); err != nil {
			return nil, fmt.Errorf("linha %d: %w", i+1, err)
		}
		e.Year, e.Month = year, month
		normalizeEntry(&e)
		e.RecomputeDifference()
		replaced = append(replaced, e)
	}

	if err := r.ensureYear(ctx, year); err != nil {
		return nil, err
	}

	r.entries = slices.DeleteFunc(r.entries, func(e domain.LedgerEntry) bool {
		return e.Year == year && e.Month == month
	})
	r.entries = append(r.entries, replaced...)
	slices.SortStableFunc(r.entries, compareEntries)

	out := make([]domain.LedgerEntry, len(replaced))
	for i, e := range replaced {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

// ---------------------- gravação ----------------------

// Save reescreve o documento de cada ano carregado. Anos que falharam na carga
// não são gravados para não apagar o conteúdo remoto; o erro da carga é devolvido.
func (r *repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if err := r.ensureLoaded(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, e := range r.entries {
		if _, ok := r.documents[e.Year]; !ok {
			r.logger.Warn("lançamento de ano sem documento configurado será ignorado",
				zap.String("ano", e.Year), zap.String("fornecedor", e.Supplier))
		}
	}

	for _, year := range r.Years() {
		st, ok := r.years[year]
		if !ok || !st.loaded {
			r.logger.Warn("ano não carregado; documento não será gravado", zap.String("ano", year))
			continue
		}
		if err := r.saveYear(ctx, year); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *repository) saveYear(ctx context.Context, year string) error {
	doc := r.document(year)
	if len(doc.Sheets) == 0 {
		return nil
	}
	return r.store.SaveDocument(ctx, r.documents[year], doc)
}

// document monta o documento do ano: abas preservadas primeiro, depois uma aba
// por mês com lançamentos, na ordem do calendário.
func (r *repository) document(year string) *store.Document {
	doc := &store.Document{}
	st := r.years[year]
	if st != nil {
		doc.Sheets = append(doc.Sheets, st.passthrough...)
	}

	byMonth := make(map[string][]domain.LedgerEntry)
	for _, e := range r.entries {
		if e.Year == year {
			byMonth[e.Month] = append(byMonth[e.Month], e)
		}
	}
	for _, month := range domain.Months {
		entries := byMonth[month]
		if len(entries) == 0 {
			continue
		}
		sheet := store.Sheet{Name: month, Columns: sheetColumns(st, month, entries)}
		for _, e := range entries {
			normalizeEntry(&e)
			e.RecomputeDifference()
			cells := make([]any, len(sheet.Columns))
			for j, col := range sheet.Columns {
				cells[j] = e.Cell(col)
			}
			sheet.Rows = append(sheet.Rows, cells)
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}

	if len(doc.Sheets) == 0 && st != nil && st.existed {
		doc.Sheets = append(doc.Sheets, store.Sheet{
			Name:    domain.SheetMatriz,
			Columns: append([]string(nil), domain.LedgerColumns...),
		})
	}
	return doc
}

// sheetColumns devolve o esquema seguido das colunas extras da aba: primeiro as
// lidas do documento, depois as que só aparecem nos lançamentos editados.
func sheetColumns(st *yearState, month string, entries []domain.LedgerEntry) []string {
	cols := append([]string(nil), domain.LedgerColumns...)
	var known []string
	if st != nil {
		known = st.extraColumns[month]
	}
	cols = append(cols, known...)

	var added []string
	for _, e := range entries {
		for col := range e.Extra {
			if !ledgerColumn[col] && !slices.Contains(known, col) && !slices.Contains(added, col) {
				added = append(added, col)
			}
		}
	}
	slices.Sort(added)
	return append(cols, added...)
}

// Export gera o .xlsx de um ano a partir da memória.
func (r *repository) Export(ctx context.Context, year string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	year = strings.TrimSpace(year)
	if _, ok := r.documents[year]; !ok {
		return nil, domain.NewValidationError(domain.ColAno, fmt.Sprintf("ano %q não configurado", year))
	}
	if err := r.ensureYear(ctx, year); err != nil {
		return nil, err
	}
	doc := r.document(year)
	if len(doc.Sheets) == 0 {
		doc.Sheets = append(doc.Sheets, store.Sheet{Name: domain.SheetMatriz, Columns: domain.LedgerColumns})
	}
	return store.EncodeDocument(doc)
}
