package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// SummaryInput dados do resumo em PDF de um relatório.
type SummaryInput struct {
	TaxpayerName string
	Direction    entity.Direction
	Competence   string // MM/AAAA; vazio quando o relatório é manual
	Records      []*entity.InvoiceRecord
	GeneratedAt  time.Time
}

// PDFSummary página única com a quantidade de notas e os três totais da planilha.
func (r *Renderer) PDFSummary(in SummaryInput, outputPath string) bool {
	data, err := summaryPDF(in)
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(outputPath), 0o755); err == nil {
			err = os.WriteFile(outputPath, data, 0o644)
		}
	}
	if err != nil {
		r.log.Error().Err(err).Str("path", outputPath).Msg("falha ao gerar resumo PDF")
		return false
	}
	r.log.Info().Str("path", outputPath).Msg("resumo PDF gerado")
	return true
}

func summaryPDF(in SummaryInput) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Resumo NFS-e "+in.Direction.Label(), true).
		WithAuthor(nonEmpty(in.TaxpayerName, "NFS-e Nacional"), true).
		Build()

	m := maroto.New(cfg)
	totals := Sum(in.Records)

	m.AddRows(titleRow(in))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(row.New(6))
	m.AddRows(
		summaryRow("Quantidade de notas", ptBR.Sprintf("%d", totals.Count)),
		summaryRow("Valor dos serviços", formatBRL(totals.ServiceValue)),
		summaryRow("Valor ISSQN", formatBRL(totals.ISSQNValue)),
		summaryRow("Valor líquido", formatBRL(totals.NetValue)),
	)
	m.AddRows(row.New(6))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(6).Add(col.New(12).Add(
		text.New("Gerado em "+in.GeneratedAt.Format("02/01/2006 15:04:05"), props.Text{
			Size: 7, Color: colorGray, Top: 1, Align: align.Right,
		}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("report: gerar PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func titleRow(in SummaryInput) core.Row {
	sub := "Relatório manual"
	if in.Competence != "" {
		sub = "Competência " + in.Competence
	}
	return row.New(20).Add(
		col.New(8).Add(
			text.New(nonEmpty(in.TaxpayerName, "-"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(sub, props.Text{Size: 9, Top: 10, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("NFS-e "+in.Direction.Label(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
		),
	)
}

func summaryRow(label, value string) core.Row {
	return row.New(8).Add(
		col.New(2),
		col.New(5).Add(text.New(label+":", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Left, Top: 1,
		})),
		col.New(3).Add(text.New(value, props.Text{
			Size: 10, Align: align.Right, Top: 1,
		})),
		col.New(2),
	)
}

// formatBRL valor monetário com separadores pt-BR ("R$ 1.234,50").
func formatBRL(v decimal.Decimal) string {
	return ptBR.Sprintf("R$ %.2f", v.Round(2).InexactFloat64())
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
