// Package report gera os relatórios de NFS-e: planilha XLSX com totais e resumo em PDF.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

// Formatos numéricos embutidos do Excel: 4 = "#,##0.00", 2 = "0.00".
const (
	numFmtMoney   = 4
	numFmtPercent = 2
)

// TotalsLabel rótulo da linha de totais.
const TotalsLabel = "TOTAIS:"

// Totals somatórios da linha de totais.
type Totals struct {
	Count        int
	ServiceValue decimal.Decimal
	ISSQNValue   decimal.Decimal
	NetValue     decimal.Decimal
}

// Sum acumula os três campos monetários dos registros.
func Sum(records []*entity.InvoiceRecord) Totals {
	t := Totals{ServiceValue: decimal.Zero, ISSQNValue: decimal.Zero, NetValue: decimal.Zero}
	for _, r := range records {
		if r == nil {
			continue
		}
		t.Count++
		t.ServiceValue = t.ServiceValue.Add(r.ServiceValue)
		t.ISSQNValue = t.ISSQNValue.Add(r.ISSQNValue)
		t.NetValue = t.NetValue.Add(r.NetValue)
	}
	return t
}

// Renderer escreve a planilha de um sentido.
type Renderer struct {
	log zerolog.Logger
}

// NewRenderer cria o renderer.
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{log: log.With().Str("component", "report").Logger()}
}

// Render grava records em outputPath. Falhas são logadas e viram false.
func (r *Renderer) Render(records []*entity.InvoiceRecord, dir entity.Direction, outputPath string) bool {
	if err := r.render(records, dir, outputPath); err != nil {
		r.log.Error().Err(err).Str("path", outputPath).Str("direction", string(dir)).Msg("falha ao gerar relatório")
		return false
	}
	r.log.Info().Str("path", outputPath).Int("records", len(records)).Msg("relatório gerado")
	return true
}

func (r *Renderer) render(records []*entity.InvoiceRecord, dir entity.Direction, outputPath string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("report: panic ao montar planilha: %v", p)
		}
	}()

	cols := columnsFor(dir)
	sheet := SheetName(dir)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("report: renomear aba: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("report: cabeçalho: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.header); err != nil {
		return fmt.Errorf("report: estilo cabeçalho: %w", err)
	}

	row := 2
	for _, rec := range records {
		if rec == nil {
			continue
		}
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i] = c.value(rec)
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("report: linha %d: %w", row, err)
		}
		row++
	}
	lastDataRow := row - 1

	if err := formatColumns(f, sheet, cols, lastDataRow, styles); err != nil {
		return err
	}

	// linha em branco, depois totais
	totalsRow := lastDataRow + 2
	if err := writeTotals(f, sheet, cols, totalsRow, Sum(records), styles); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("report: criar diretório: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("report: salvar %s: %w", filepath.Base(outputPath), err)
	}
	return nil
}

// formatColumns larguras e formatos numéricos das linhas de dados (2..lastDataRow).
func formatColumns(f *excelize.File, sheet string, cols []column, lastDataRow int, styles sheetStyles) error {
	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return fmt.Errorf("report: largura da coluna %s: %w", name, err)
		}
		if lastDataRow < 2 || c.kind == kindText {
			continue
		}
		style := styles.money
		if c.kind == kindPercent {
			style = styles.percent
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, lastDataRow), style); err != nil {
			return fmt.Errorf("report: formato da coluna %s: %w", name, err)
		}
	}
	return nil
}

func writeTotals(f *excelize.File, sheet string, cols []column, row int, t Totals, styles sheetStyles) error {
	service, issqn, net := totalColumns(cols)
	values := make([]any, len(cols))
	for i := range values {
		values[i] = ""
	}
	values[service-1] = TotalsLabel
	values[service] = t.ServiceValue.Round(2).InexactFloat64()
	values[issqn] = t.ISSQNValue.Round(2).InexactFloat64()
	values[net] = t.NetValue.Round(2).InexactFloat64()

	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("report: totais: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, row), styles.totalLabel); err != nil {
		return fmt.Errorf("report: estilo totais: %w", err)
	}
	for _, idx := range []int{service, issqn, net} {
		c, _ := excelize.CoordinatesToCellName(idx+1, row)
		if err := f.SetCellStyle(sheet, c, c, styles.totalMoney); err != nil {
			return fmt.Errorf("report: estilo totais: %w", err)
		}
	}
	return nil
}

type sheetStyles struct {
	header     int
	money      int
	percent    int
	totalLabel int
	totalMoney int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, fmt.Errorf("report: estilo cabeçalho: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: numFmtMoney}); err != nil {
		return s, fmt.Errorf("report: estilo moeda: %w", err)
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return s, fmt.Errorf("report: estilo percentual: %w", err)
	}
	if s.totalLabel, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("report: estilo totais: %w", err)
	}
	if s.totalMoney, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtMoney}); err != nil {
		return s, fmt.Errorf("report: estilo totais: %w", err)
	}
	return s, nil
}
