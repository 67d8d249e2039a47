package store

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"supplier-service/internal/core/normalizer"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ---------------------- leitura ----------------------

// decodeWorkbook lê todas as abas. Tenta .xlsx e cai para .xls quando o
// arquivo ainda está no formato antigo.
func decodeWorkbook(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err == nil {
		defer f.Close()
		return decodeXLSX(f)
	}

	doc, errXLS := decodeXLS(data)
	if errXLS != nil {
		return nil, fmt.Errorf("formato de planilha não suportado: %v (xls: %v)", err, errXLS)
	}
	return doc, nil
}

// decodeXLSX lê os valores brutos (números sem formatação). Células numéricas
// com formato de data viram DD/MM/AAAA já na leitura; um número comum nunca é
// interpretado como data.
func decodeXLSX(f *excelize.File) (*Document, error) {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dateStyles := make(map[int]bool)

	doc := &Document{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("erro ao ler a aba %q: %w", name, err)
		}
		for r, row := range rows {
			for c, value := range row {
				if text, ok := dateCellText(f, name, c+1, r+1, value, date1904, dateStyles); ok {
					row[c] = text
				}
			}
		}
		doc.Sheets = append(doc.Sheets, sheetFromRows(name, rows))
	}
	return doc, nil
}

func dateCellText(f *excelize.File, sheet string, col, row int, value string, date1904 bool, cache map[int]bool) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial <= 0 {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	isDate, ok := cache[styleID]
	if !ok {
		isDate = isDateStyle(f, styleID)
		cache[styleID] = isDate
	}
	if !isDate {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return normalizer.FormatDate(t), true
}

func isDateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	// formatos embutidos de data (14-17 e 22, data com hora)
	switch style.NumFmt {
	case 14, 15, 16, 17, 22:
		return true
	}
	return false
}

// isDateFormat reconhece códigos de formato personalizados com dia ou ano,
// ignorando trechos entre aspas e entre colchetes (moeda, cor, localidade).
func isDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	return strings.ContainsAny(stripped, "dy")
}

func decodeXLS(data []byte) (*Document, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}
		doc.Sheets = append(doc.Sheets, sheetFromRows(sheet.GetName(), rows))
	}
	return doc, nil
}

// sheetFromRows usa a primeira linha como cabeçalho. Colunas sem nome e linhas
// totalmente vazias são descartadas.
func sheetFromRows(name string, rows [][]string) Sheet {
	sheet := Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	var keep []int
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		keep = append(keep, i)
		sheet.Columns = append(sheet.Columns, h)
	}

	for _, raw := range rows[1:] {
		row := make([]any, len(keep))
		empty := true
		for j, idx := range keep {
			v := ""
			if idx < len(raw) {
				v = strings.TrimSpace(raw[idx])
			}
			if v != "" {
				empty = false
			}
			row[j] = v
		}
		if !empty {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet
}

// ---------------------- gravação ----------------------

// encodeWorkbook gera um .xlsx novo com uma aba por Sheet, na ordem recebida.
func encodeWorkbook(doc *Document) ([]byte, error) {
	if doc == nil || len(doc.Sheets) == 0 {
		return nil, fmt.Errorf("o documento não possui planilhas")
	}

	seen := make(map[string]bool)
	for _, sh := range doc.Sheets {
		key := strings.ToLower(sh.Name)
		if seen[key] {
			return nil, fmt.Errorf("aba duplicada: %q", sh.Name)
		}
		seen[key] = true
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sh := range doc.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				return nil, fmt.Errorf("erro ao nomear a aba %q: %w", sh.Name, err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, fmt.Errorf("erro ao criar a aba %q: %w", sh.Name, err)
		}
		if err := writeSheet(f, sh); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar o arquivo Excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sh Sheet) error {
	header := make([]any, len(sh.Columns))
	for i, c := range sh.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return fmt.Errorf("erro ao gravar cabeçalho da aba %q: %w", sh.Name, err)
	}

	for i, row := range sh.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
			return fmt.Errorf("erro ao gravar linha %d da aba %q: %w", i+2, sh.Name, err)
		}
	}
	return nil
}
