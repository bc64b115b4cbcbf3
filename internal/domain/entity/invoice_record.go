package entity

import "github.com/shopspring/decimal"

// Party contraparte da nota (tomador nas emitidas, prestador nas recebidas).
type Party struct {
	Role                  PartyRole
	CNPJ                  string
	CPF                   string
	Document              string // CNPJ/CPF formatado para exibição; vazio se nenhum válido
	Name                  string
	MunicipalRegistration string // inscrição municipal (só prestador)
	MunicipalityCode      string
}

// InvoiceRecord registro plano extraído de um XML de NFS-e. Imutável depois de construído.
type InvoiceRecord struct {
	Number             string
	Series             string
	EmissionDate       string // dhEmi como veio no XML
	Competence         string
	Status             string
	Party              Party
	ServiceCode        string
	ServiceDescription string
	ServiceValue       decimal.Decimal
	CalculationBase    decimal.Decimal
	TaxRate            decimal.Decimal // alíquota aplicada (%)
	ISSQNValue         decimal.Decimal
	WithheldValue      decimal.Decimal
	NetValue           decimal.Decimal
	SimplesTaxPercent  decimal.Decimal // % tributos Simples Nacional
	ServiceLocation    string
	SourceFile         string // nome base do XML de origem
}

// EmissionDay devolve só a parte de data (AAAA-MM-DD) da emissão.
func (r InvoiceRecord) EmissionDay() string {
	if len(r.EmissionDate) >= 10 {
		return r.EmissionDate[:10]
	}
	return r.EmissionDate
}
