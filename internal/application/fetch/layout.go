package fetch

import (
	"fmt"
	"strings"
	"time"
)

// Endereços padrão do Emissor Nacional.
const (
	DefaultBaseURL      = "https://www.nfse.gov.br/EmissorNacional"
	DefaultLoginPath    = "/Login?ReturnUrl=%2fEmissorNacional"
	DefaultIssuedPath   = "/Notas/Emitidas"
	DefaultReceivedPath = "/Notas/Recebidas?executar=1"
)

// Layout endereços e seletores do portal. Onde há mais de um seletor, são tentados em ordem.
type Layout struct {
	BaseURL      string
	LoginPath    string
	IssuedPath   string
	ReceivedPath string

	CertificateEntry []Selector
	LoggedInMarkers  []Selector
	LoginUser        Selector
	LoginPassword    Selector
	LoginSubmit      Selector

	StartDate    []Selector
	EndDate      []Selector
	FilterButton Selector

	NoResults  Selector
	TotalLabel Selector
	Rows       Selector // CSS das linhas da listagem

	CellCompetence   string // CSS relativo à linha
	CellCounterparty string
	StatusImage      string
	StatusAttribute  string
	RowMenu          string

	XMLLinkText string
	PDFLinkText string

	NextPage []Selector
}

// DefaultLayout seletores da listagem do Emissor Nacional.
func DefaultLayout() Layout {
	return Layout{
		BaseURL:      DefaultBaseURL,
		LoginPath:    DefaultLoginPath,
		IssuedPath:   DefaultIssuedPath,
		ReceivedPath: DefaultReceivedPath,

		CertificateEntry: []Selector{
			"a.img-certificado",
			"//*[contains(normalize-space(.), 'Acesso via certificado digital')][self::a or self::button]",
		},
		LoggedInMarkers: []Selector{
			"//*[contains(normalize-space(text()), 'Sair com segurança')]",
			"//*[contains(normalize-space(text()), 'Meus dados')]",
		},
		LoginUser:     "//input[@placeholder='CPF/CNPJ' or @aria-label='CPF/CNPJ' or @id=//label[normalize-space(.)='CPF/CNPJ']/@for]",
		LoginPassword: "//input[@type='password']",
		LoginSubmit:   "//button[normalize-space(.)='Entrar']",

		StartDate:    []Selector{"input#datainicio", "input[name='datainicio']"},
		EndDate:      []Selector{"input#datafim", "input[name='datafim']"},
		FilterButton: "(//button[contains(normalize-space(.), 'Filtrar')])[1]",

		NoResults:  ".sem-registros",
		TotalLabel: "(//*[contains(text(), 'Total de ')])[1]",
		Rows:       "tbody tr",

		CellCompetence:   ".td-competencia",
		CellCounterparty: ".td-texto-grande",
		StatusImage:      ".td-situacao > img",
		StatusAttribute:  "data-original-title",
		RowMenu:          ".icone-trigger",

		XMLLinkText: "Download XML",
		PDFLinkText: "Download DANFS-e",

		NextPage: []Selector{
			"//a[@data-original-title='Próxima'][.//i[contains(@class, 'fa-angle-right')]]",
			"//li[not(contains(@class, 'disabled'))]/a[.//i[contains(@class, 'fa-angle-right')]]",
		},
	}
}

// URL junta a base com um caminho do portal.
func (l Layout) URL(path string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// RowCell célula css da linha index (base 1).
func (l Layout) RowCell(index int, css string) Selector {
	return Selector(fmt.Sprintf("%s:nth-child(%d) %s", l.Rows, index, css))
}

// RowLink link de texto dentro da linha index (base 1).
func (l Layout) RowLink(index int, text string) Selector {
	return Selector(fmt.Sprintf("(//tbody/tr)[%d]//a[contains(normalize-space(.), %q)]", index, text))
}

// Timeouts limites de espera da sessão.
type Timeouts struct {
	Navigation   time.Duration // rede ociosa após abrir uma página
	Idle         time.Duration // rede ociosa após login, filtro ou troca de página
	Element      time.Duration // espera de campos e controles
	Rows         time.Duration // linhas da listagem
	FastCheck    time.Duration // checagem rápida de "sem registros" e controles opcionais
	LinkVisible  time.Duration // link do DANFS-e depois de reabrir o menu
	Download     time.Duration
	LoginPolls   int
	PollInterval time.Duration
	Settle       time.Duration // pausa após navegação, filtro e troca de página
	MenuSettle   time.Duration // pausa após abrir o menu da linha
}

// DefaultTimeouts valores usados em produção.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:   30 * time.Second,
		Idle:         15 * time.Second,
		Element:      5 * time.Second,
		Rows:         10 * time.Second,
		FastCheck:    1 * time.Second,
		LinkVisible:  2 * time.Second,
		Download:     30 * time.Second,
		LoginPolls:   30,
		PollInterval: 1 * time.Second,
		Settle:       2 * time.Second,
		MenuSettle:   800 * time.Millisecond,
	}
}
