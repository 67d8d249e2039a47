package ledger

import (
	"context"
	"errors"
	"testing"

	"supplier-service/internal/core/store"
	"supplier-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	path2025 = "/sites/fin/Docs/Controle 2025.xlsx"
	path2026 = "/sites/fin/Docs/Controle 2026.xlsx"
)

func money(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s))
}

func seedLedger(t *testing.T, mem *store.MemoryBackend) {
	t.Helper()
	doc := &store.Document{Sheets: []store.Sheet{
		{Name: domain.SheetMatriz, Columns: domain.LedgerColumns},
		{
			Name:    "FEVEREIRO",
			Columns: []string{"Fornecedor", "ID - Pagamento", "Valor Estimado", "Valor Pago", "Data de Pagamento", "Status de Pagamento"},
			Rows: [][]any{
				{"Acme", "P2", "R$ 1.000,00", "1000", "45717", "pago"},
			},
		},
		{
			Name:    "Janeiro",
			Columns: []string{"Fornecedor", "ID - Pagamento", "Valor Estimado"},
			Rows:    [][]any{{"Beta", "P9", "50"}},
		},
		{Name: "Resumo", Columns: []string{"Total"}, Rows: [][]any{{"123"}}},
	}}
	data, err := store.EncodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	mem.Put(path2025, data)
}

func newLedger(t *testing.T) (*store.MemoryBackend, *repository) {
	t.Helper()
	mem := store.NewMemoryBackend()
	seedLedger(t, mem)
	repo := NewRepository(store.NewService(mem, nil), map[string]string{"2025": path2025, "2026": path2026}, nil)
	return mem, repo.(*repository)
}

func TestLoadTagsAndSorts(t *testing.T) {
	_, repo := newLedger(t)
	entries, err := repo.Entries(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Month != "JANEIRO" || entries[1].Month != "FEVEREIRO" {
		t.Errorf("order = %s, %s", entries[0].Month, entries[1].Month)
	}
	feb := entries[1]
	if feb.Year != "2025" || feb.Status != domain.StatusPaid || feb.PaymentDate != "01/03/2025" {
		t.Errorf("feb = %+v", feb)
	}
	if !feb.Estimated.Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("estimated = %v", feb.Estimated)
	}
}

func TestRegisterPaymentModes(t *testing.T) {
	ctx := context.Background()
	base := domain.LedgerEntry{
		Supplier:  "Acme",
		PaymentID: "P1",
		Year:      "2025",
		Month:     "janeiro",
		Estimated: money("200"),
		Paid:      money("100"),
		DueDay:    "10",
	}

	t.Run("create new keeps duplicates", func(t *testing.T) {
		_, repo := newLedger(t)
		for i := 0; i < 2; i++ {
			if _, err := repo.RegisterPayment(ctx, base, domain.CreateNew); err != nil {
				t.Fatalf("register: %v", err)
			}
		}
		entries, _ := repo.Entries(ctx, Filter{Year: "2025", Month: "JANEIRO"})
		count := 0
		for _, e := range entries {
			if e.PaymentID == "P1" {
				count++
			}
		}
		if count != 2 {
			t.Errorf("rows with P1 = %d, want 2", count)
		}
	})

	t.Run("merge sums paid", func(t *testing.T) {
		mem, repo := newLedger(t)
		if _, err := repo.RegisterPayment(ctx, base, domain.MergeWithExisting); err != nil {
			t.Fatal(err)
		}
		second := base
		second.Paid = money("50")
		second.Estimated = money("999")
		second.DueDay = "15"
		merged, err := repo.RegisterPayment(ctx, second, domain.MergeWithExisting)
		if err != nil {
			t.Fatal(err)
		}
		if !merged.Estimated.Value.Equal(decimal.NewFromInt(200)) ||
			!merged.Paid.Value.Equal(decimal.NewFromInt(150)) ||
			!merged.Difference.Value.Equal(decimal.NewFromInt(50)) ||
			merged.DueDay != "15" {
			t.Errorf("merged = est %v paid %v diff %v due %s", merged.Estimated, merged.Paid, merged.Difference, merged.DueDay)
		}

		entries, _ := repo.Entries(ctx, Filter{Year: "2025", Month: "JANEIRO"})
		count := 0
		for _, e := range entries {
			if e.PaymentID == "P1" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("rows with P1 = %d, want 1", count)
		}
		if mem.Saves(path2025) != 2 {
			t.Errorf("saves = %d, want 2", mem.Saves(path2025))
		}
		if mem.Saves(path2026) != 0 {
			t.Error("other year must not be written")
		}
	})

	t.Run("merge without payment id appends", func(t *testing.T) {
		_, repo := newLedger(t)
		noID := base
		noID.PaymentID = ""
		repo.RegisterPayment(ctx, noID, domain.MergeWithExisting)
		repo.RegisterPayment(ctx, noID, domain.MergeWithExisting)
		entries, _ := repo.Entries(ctx, Filter{Year: "2025", Month: "JANEIRO", Supplier: "acme"})
		if len(entries) != 2 {
			t.Errorf("entries = %d, want 2", len(entries))
		}
	})
}

func TestRegisterPaymentValidation(t *testing.T) {
	mem, repo := newLedger(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry domain.LedgerEntry
		mode  domain.MergeMode
	}{
		{"unknown month", domain.LedgerEntry{Supplier: "A", Year: "2025", Month: "JANUARY"}, domain.CreateNew},
		{"unmapped year", domain.LedgerEntry{Supplier: "A", Year: "2030", Month: "MAIO"}, domain.CreateNew},
		{"missing supplier", domain.LedgerEntry{Year: "2025", Month: "MAIO"}, domain.CreateNew},
		{"bad status", domain.LedgerEntry{Supplier: "A", Year: "2025", Month: "MAIO", Status: "ATRASADO"}, domain.CreateNew},
		{"bad mode", domain.LedgerEntry{Supplier: "A", Year: "2025", Month: "MAIO"}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.RegisterPayment(ctx, tt.entry, tt.mode)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("want ValidationError, got %v", err)
			}
		})
	}
	if mem.Saves(path2025) != 0 {
		t.Error("validation failures must not save")
	}
}

func TestSavePartitionsByMonth(t *testing.T) {
	mem, repo := newLedger(t)
	ctx := context.Background()

	_, err := repo.RegisterPayment(ctx, domain.LedgerEntry{
		Supplier: "Gama", PaymentID: "G1", Year: "2026", Month: "MARÇO",
		Estimated: money("10.5"), SendDate: "2026-03-02",
	}, domain.CreateNew)
	if err != nil {
		t.Fatal(err)
	}

	// lançamento de ano sem documento é ignorado na gravação
	repo.entries = append(repo.entries, domain.LedgerEntry{Supplier: "X", Year: "2019", Month: "MAIO"})

	if err := repo.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, _ := mem.OpenBinary(ctx, path2025)
	doc, err := store.DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range doc.Sheets {
		names = append(names, s.Name)
	}
	want := []string{"MATRIZ", "Resumo", "JANEIRO", "FEVEREIRO"}
	if len(names) != len(want) {
		t.Fatalf("sheets = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", names, want)
		}
	}

	data, _ = mem.OpenBinary(ctx, path2026)
	doc, _ = store.DecodeDocument(data)
	if len(doc.Sheets) != 1 || doc.Sheets[0].Name != "MARÇO" {
		t.Fatalf("2026 sheets = %+v", doc.Sheets)
	}
	march := doc.Sheets[0]
	if len(march.Columns) != len(domain.LedgerColumns) || len(march.Rows) != 1 {
		t.Fatalf("march = %+v", march)
	}

	fresh := NewRepository(store.NewService(mem, nil), map[string]string{"2025": path2025, "2026": path2026}, nil)
	entries, err := fresh.Entries(ctx, Filter{Year: "2026"})
	if err != nil || len(entries) != 1 {
		t.Fatalf("reload = %v, %v", entries, err)
	}
	g := entries[0]
	if g.SendDate != "02/03/2026" || !g.Estimated.Value.Equal(decimal.RequireFromString("10.5")) || g.Status != domain.StatusPending {
		t.Errorf("reloaded = %+v", g)
	}
	if !g.Difference.Value.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("difference = %v", g.Difference)
	}
}

func TestLockedSaveLeavesLedgerUnchanged(t *testing.T) {
	mem, repo := newLedger(t)
	ctx := context.Background()

	before, _ := repo.Entries(ctx, Filter{})
	mem.Lock(path2025)
	err := repo.Save(ctx)
	if !domain.IsLocked(err) {
		t.Fatalf("want locked, got %v", err)
	}
	after, _ := repo.Entries(ctx, Filter{})
	if len(after) != len(before) {
		t.Fatalf("entries changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].PaymentID != after[i].PaymentID || !before[i].Paid.Equal(after[i].Paid) {
			t.Errorf("entry %d changed", i)
		}
	}
}

func TestFetchFailureKeepsOtherYears(t *testing.T) {
	mem, repo := newLedger(t)
	mem.Put(path2026, []byte("corrompido"))
	ctx := context.Background()

	entries, err := repo.Entries(ctx, Filter{})
	var fetchErr *domain.RemoteFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("want RemoteFetchError, got %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("2025 entries should still load, got %d", len(entries))
	}

	_, err = repo.RegisterPayment(ctx, domain.LedgerEntry{Supplier: "A", Year: "2026", Month: "MAIO"}, domain.CreateNew)
	if !errors.As(err, &fetchErr) {
		t.Errorf("register into a failed year: want RemoteFetchError, got %v", err)
	}
	if err := repo.Save(ctx); !errors.As(err, &fetchErr) {
		t.Fatalf("save should report the year that failed to load, got %v", err)
	}
	if mem.Saves(path2025) != 1 {
		t.Errorf("loaded year should still be saved, saves = %d", mem.Saves(path2025))
	}
	if mem.Saves(path2026) != 0 {
		t.Error("a year that failed to load must not be overwritten")
	}
}

func TestReplacePeriodAndSummary(t *testing.T) {
	mem, repo := newLedger(t)
	ctx := context.Background()

	replaced, err := repo.ReplacePeriod(ctx, "2025", "fevereiro", []domain.LedgerEntry{
		{Supplier: "Acme", PaymentID: "P2", Estimated: money("1000"), Paid: money("400"), Status: "pago"},
		{Supplier: "Delta", PaymentID: "D1", Estimated: money("300")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(replaced) != 2 || replaced[0].Month != "FEVEREIRO" || !replaced[0].Difference.Value.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("replaced = %+v", replaced)
	}
	if mem.Saves(path2025) != 0 {
		t.Error("replace is staged")
	}

	summary, err := repo.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	feb := summary[1]
	if feb.Month != "FEVEREIRO" || feb.Entries != 2 || feb.Pending != 1 {
		t.Errorf("feb = %+v", feb)
	}
	if !feb.Estimated.Value.Equal(decimal.NewFromInt(1300)) || !feb.Paid.Value.Equal(decimal.NewFromInt(400)) || !feb.Difference.Value.Equal(decimal.NewFromInt(900)) {
		t.Errorf("feb totals = %v %v %v", feb.Estimated, feb.Paid, feb.Difference)
	}

	if _, err := repo.ReplacePeriod(ctx, "2025", "FEVEREIRO", nil); err != nil {
		t.Fatal(err)
	}
	entries, _ := repo.Entries(ctx, Filter{Month: "FEVEREIRO"})
	if len(entries) != 0 {
		t.Errorf("period should be empty, got %d", len(entries))
	}

	data, err := repo.Export(ctx, "2025")
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := store.DecodeDocument(data)
	if len(doc.Sheets) != 3 {
		t.Errorf("export sheets = %d, want MATRIZ, Resumo and JANEIRO", len(doc.Sheets))
	}
	if _, err := repo.Export(ctx, "1999"); err == nil {
		t.Error("expected error for unmapped year")
	}
}

func TestSaveKeepsExtraColumns(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryBackend()
	doc := &store.Document{Sheets: []store.Sheet{{
		Name:    "MARÇO",
		Columns: []string{"Fornecedor", "ID - Pagamento", "Centro de custo", "Valor Estimado"},
		Rows: [][]any{
			{"Acme", "P3", "TI-01", "300"},
			{"Beta", "P4", "", "40"},
		},
	}}}
	data, err := store.EncodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	mem.Put(path2025, data)
	docs := map[string]string{"2025": path2025}

	repo := NewRepository(store.NewService(mem, nil), docs, nil)
	entries, err := repo.Entries(ctx, Filter{Month: "MARÇO"})
	if err != nil || len(entries) != 2 {
		t.Fatalf("entries = %v, %v", entries, err)
	}
	if entries[0].Extra["Centro de custo"] != "TI-01" {
		t.Fatalf("extra = %v", entries[0].Extra)
	}

	entries[1].Extra = map[string]string{"Centro de custo": "ADM", "Aprovador": "Maria"}
	if _, err := repo.ReplacePeriod(ctx, "2025", "MARÇO", entries); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, _ = mem.OpenBinary(ctx, path2025)
	saved, err := store.DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	march, ok := saved.Sheet("MARÇO")
	if !ok {
		t.Fatalf("sheets = %+v", saved.Sheets)
	}
	wantCols := append(append([]string(nil), domain.LedgerColumns...), "Centro de custo", "Aprovador")
	if len(march.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", march.Columns, wantCols)
	}
	for i := range wantCols {
		if march.Columns[i] != wantCols[i] {
			t.Fatalf("columns = %v, want %v", march.Columns, wantCols)
		}
	}

	reloaded, err := NewRepository(store.NewService(mem, nil), docs, nil).Entries(ctx, Filter{Month: "MARÇO"})
	if err != nil || len(reloaded) != 2 {
		t.Fatalf("reload = %v, %v", reloaded, err)
	}
	if reloaded[0].Extra["Centro de custo"] != "TI-01" {
		t.Errorf("first extra = %v", reloaded[0].Extra)
	}
	if reloaded[1].Extra["Centro de custo"] != "ADM" || reloaded[1].Extra["Aprovador"] != "Maria" {
		t.Errorf("second extra = %v", reloaded[1].Extra)
	}
}
