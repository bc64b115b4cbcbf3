package nfse

// Scope elemento a partir do qual um campo é procurado.
type Scope int

const (
	ScopeNFSe Scope = iota // infNFSe
	ScopeDPS               // DPS/infDPS dentro de infNFSe
)

// Field campos extraídos do XML.
type Field string

const (
	FieldNumber             Field = "nNFSe"
	FieldSeries             Field = "serie"
	FieldEmissionDate       Field = "dhEmi"
	FieldCompetence         Field = "dCompet"
	FieldStatus             Field = "cStat"
	FieldRecipientCNPJ      Field = "toma.CNPJ"
	FieldRecipientCPF       Field = "toma.CPF"
	FieldRecipientName      Field = "toma.xNome"
	FieldRecipientCity      Field = "toma.cMun"
	FieldIssuerCNPJ         Field = "prest.CNPJ"
	FieldIssuerCPF          Field = "prest.CPF"
	FieldIssuerIM           Field = "prest.IM"
	FieldIssuerName         Field = "emit.xNome"
	FieldIssuerCity         Field = "emit.cMun"
	FieldServiceCode        Field = "cTribNac"
	FieldServiceDescription Field = "xDescServ"
	FieldServiceValue       Field = "vServ"
	FieldCalculationBase    Field = "vBC"
	FieldTaxRate            Field = "pAliqAplic"
	FieldISSQN              Field = "vISSQN"
	FieldWithheld           Field = "vTotalRet"
	FieldNet                Field = "vLiq"
	FieldSimplesPercent     Field = "pTotTribSN"
	FieldServiceLocation    Field = "xLocPrestacao"
)

// Rule onde buscar o campo e o valor usado quando ele falta (ou o escopo não existe).
type Rule struct {
	Scope   Scope
	Path    string
	Default string
}

// Rules tabela explícita de extração. Campos decimais usam Default "0".
var Rules = map[Field]Rule{
	FieldNumber:             {ScopeNFSe, ".//nNFSe", ""},
	FieldStatus:             {ScopeNFSe, ".//cStat", ""},
	FieldSeries:             {ScopeDPS, ".//serie", ""},
	FieldEmissionDate:       {ScopeDPS, ".//dhEmi", ""},
	FieldCompetence:         {ScopeDPS, ".//dCompet", ""},
	FieldRecipientCNPJ:      {ScopeDPS, ".//toma/CNPJ", ""},
	FieldRecipientCPF:       {ScopeDPS, ".//toma/CPF", ""},
	FieldRecipientName:      {ScopeDPS, ".//toma/xNome", ""},
	FieldRecipientCity:      {ScopeDPS, ".//toma/end/endNac/cMun", ""},
	FieldIssuerCNPJ:         {ScopeDPS, ".//prest/CNPJ", ""},
	FieldIssuerCPF:          {ScopeDPS, ".//prest/CPF", ""},
	FieldIssuerIM:           {ScopeDPS, ".//prest/IM", ""},
	FieldIssuerName:         {ScopeNFSe, ".//emit/xNome", ""},
	FieldIssuerCity:         {ScopeNFSe, ".//emit/enderNac/cMun", ""},
	FieldServiceCode:        {ScopeDPS, ".//cServ/cTribNac", ""},
	FieldServiceDescription: {ScopeDPS, ".//cServ/xDescServ", ""},
	FieldServiceValue:       {ScopeDPS, ".//vServPrest/vServ", "0"},
	FieldCalculationBase:    {ScopeNFSe, ".//valores/vBC", "0"},
	FieldTaxRate:            {ScopeNFSe, ".//valores/pAliqAplic", "0"},
	FieldISSQN:              {ScopeNFSe, ".//valores/vISSQN", "0"},
	FieldWithheld:           {ScopeNFSe, ".//valores/vTotalRet", "0"},
	FieldNet:                {ScopeNFSe, ".//valores/vLiq", "0"},
	FieldSimplesPercent:     {ScopeDPS, ".//totTrib/pTotTribSN", "0"},
	FieldServiceLocation:    {ScopeNFSe, ".//xLocPrestacao", ""},
}
