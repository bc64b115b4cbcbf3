package report

import (
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

type cellKind int

const (
	kindText cellKind = iota
	kindMoney
	kindPercent
)

// column uma coluna da planilha: cabeçalho, largura e como ler o valor do registro.
type column struct {
	header string
	width  float64
	kind   cellKind
	value  func(r *entity.InvoiceRecord) any
}

func money(get func(r *entity.InvoiceRecord) float64) func(r *entity.InvoiceRecord) any {
	return func(r *entity.InvoiceRecord) any { return get(r) }
}

// columnsFor layout de colunas por sentido. Recebidas tem a coluna extra de inscrição municipal.
func columnsFor(dir entity.Direction) []column {
	party := "Tomador"
	if dir == entity.DirectionReceived {
		party = "Prestador"
	}

	cols := []column{
		{header: "Número NFS-e", width: 14, value: func(r *entity.InvoiceRecord) any { return r.Number }},
		{header: "Série", width: 8, value: func(r *entity.InvoiceRecord) any { return r.Series }},
		{header: "Data Emissão", width: 13, value: func(r *entity.InvoiceRecord) any { return r.EmissionDay() }},
		{header: "Competência", width: 13, value: func(r *entity.InvoiceRecord) any { return r.Competence }},
		{header: "Status", width: 10, value: func(r *entity.InvoiceRecord) any { return r.Status }},
		{header: party + " (CNPJ/CPF)", width: 20, value: func(r *entity.InvoiceRecord) any { return r.Party.Document }},
		{header: party + " (Nome)", width: 40, value: func(r *entity.InvoiceRecord) any { return r.Party.Name }},
	}
	if dir == entity.DirectionReceived {
		cols = append(cols, column{header: "Prestador (IM)", width: 14, value: func(r *entity.InvoiceRecord) any { return r.Party.MunicipalRegistration }})
	}
	cols = append(cols,
		column{header: "Município " + party, width: 16, value: func(r *entity.InvoiceRecord) any { return r.Party.MunicipalityCode }},
		column{header: "Código Serviço", width: 14, value: func(r *entity.InvoiceRecord) any { return r.ServiceCode }},
		column{header: "Descrição Serviço", width: 50, value: func(r *entity.InvoiceRecord) any { return r.ServiceDescription }},
		column{header: "Valor Serviço (R$)", width: 16, kind: kindMoney, value: money(func(r *entity.InvoiceRecord) float64 { return r.ServiceValue.Round(2).InexactFloat64() })},
		column{header: "Base Cálculo (R$)", width: 16, kind: kindMoney, value: money(func(r *entity.InvoiceRecord) float64 { return r.CalculationBase.Round(2).InexactFloat64() })},
		column{header: "Alíquota (%)", width: 12, kind: kindPercent, value: money(func(r *entity.InvoiceRecord) float64 { return r.TaxRate.InexactFloat64() })},
		column{header: "Valor ISSQN (R$)", width: 16, kind: kindMoney, value: money(func(r *entity.InvoiceRecord) float64 { return r.ISSQNValue.Round(2).InexactFloat64() })},
		column{header: "Valor Retido (R$)", width: 16, kind: kindMoney, value: money(func(r *entity.InvoiceRecord) float64 { return r.WithheldValue.Round(2).InexactFloat64() })},
		column{header: "Valor Líquido (R$)", width: 16, kind: kindMoney, value: money(func(r *entity.InvoiceRecord) float64 { return r.NetValue.Round(2).InexactFloat64() })},
		column{header: "% Tributos SN", width: 12, kind: kindPercent, value: money(func(r *entity.InvoiceRecord) float64 { return r.SimplesTaxPercent.InexactFloat64() })},
		column{header: "Local Prestação", width: 20, value: func(r *entity.InvoiceRecord) any { return r.ServiceLocation }},
		column{header: "Arquivo XML", width: 50, value: func(r *entity.InvoiceRecord) any { return r.SourceFile }},
	)
	return cols
}

// Índices (base 0) das colunas somadas na linha de totais.
func totalColumns(cols []column) (service, issqn, net int) {
	for i, c := range cols {
		switch c.header {
		case "Valor Serviço (R$)":
			service = i
		case "Valor ISSQN (R$)":
			issqn = i
		case "Valor Líquido (R$)":
			net = i
		}
	}
	return service, issqn, net
}

// SheetName nome da aba por sentido.
func SheetName(dir entity.Direction) string {
	return "NFS-e " + dir.Label()
}
