// Package nfse lê os XML baixados do portal nacional e monta InvoiceRecord.
package nfse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// Namespace do leiaute nacional. As buscas ignoram o prefixo, então também servem para XML sem namespace.
const Namespace = "http://www.sped.fazenda.gov.br/nfse"

// Extractor converte um XML de NFS-e em registro plano.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor cria o extrator.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log.With().Str("component", "extractor").Logger()}
}

// Parse lê o arquivo e monta o registro com a contraparte do papel pedido
// (tomador para emitidas, prestador para recebidas).
// Sem infNFSe devolve (nil, nil) e loga aviso; XML ilegível devolve erro.
func (x *Extractor) Parse(path string, role entity.PartyRole) (*entity.InvoiceRecord, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("nfse: ler XML %s: %w", filepath.Base(path), err)
	}
	rec := x.fromDocument(doc, role, filepath.Base(path))
	if rec == nil {
		x.log.Warn().Str("file", path).Msg("elemento infNFSe não encontrado")
	}
	return rec, nil
}

// ParseBytes igual a Parse, para conteúdo já em memória.
func (x *Extractor) ParseBytes(data []byte, role entity.PartyRole, sourceFile string) (*entity.InvoiceRecord, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("nfse: ler XML %s: %w", sourceFile, err)
	}
	rec := x.fromDocument(doc, role, sourceFile)
	if rec == nil {
		x.log.Warn().Str("file", sourceFile).Msg("elemento infNFSe não encontrado")
	}
	return rec, nil
}

func (x *Extractor) fromDocument(doc *etree.Document, role entity.PartyRole, sourceFile string) *entity.InvoiceRecord {
	inf := doc.FindElement(".//infNFSe")
	if inf == nil {
		return nil
	}
	s := scopes{nfse: inf, dps: inf.FindElement(".//DPS/infDPS")}

	rec := &entity.InvoiceRecord{
		Number:             s.text(FieldNumber),
		Series:             s.text(FieldSeries),
		EmissionDate:       s.text(FieldEmissionDate),
		Competence:         s.text(FieldCompetence),
		Status:             s.text(FieldStatus),
		ServiceCode:        s.text(FieldServiceCode),
		ServiceDescription: s.text(FieldServiceDescription),
		ServiceValue:       s.decimal(FieldServiceValue),
		CalculationBase:    s.decimal(FieldCalculationBase),
		TaxRate:            s.decimal(FieldTaxRate),
		ISSQNValue:         s.decimal(FieldISSQN),
		WithheldValue:      s.decimal(FieldWithheld),
		NetValue:           s.decimal(FieldNet),
		SimplesTaxPercent:  s.decimal(FieldSimplesPercent),
		ServiceLocation:    s.text(FieldServiceLocation),
		SourceFile:         sourceFile,
	}

	party := entity.Party{Role: role}
	if role == entity.PartyIssuer {
		party.CNPJ = s.text(FieldIssuerCNPJ)
		party.CPF = s.text(FieldIssuerCPF)
		party.Name = s.text(FieldIssuerName)
		party.MunicipalRegistration = s.text(FieldIssuerIM)
		party.MunicipalityCode = s.text(FieldIssuerCity)
	} else {
		party.CNPJ = s.text(FieldRecipientCNPJ)
		party.CPF = s.text(FieldRecipientCPF)
		party.Name = s.text(FieldRecipientName)
		party.MunicipalityCode = s.text(FieldRecipientCity)
	}
	party.Document = displayDocument(party.CNPJ, party.CPF)
	rec.Party = party
	return rec
}

// displayDocument CNPJ tem precedência sobre CPF.
func displayDocument(cnpj, cpf string) string {
	if cnpj != "" {
		return pkgnfse.FormatDocument(cnpj)
	}
	return pkgnfse.FormatDocument(cpf)
}

type scopes struct {
	nfse *etree.Element
	dps  *etree.Element
}

func (s scopes) element(r Rule) *etree.Element {
	if r.Scope == ScopeDPS {
		return s.dps
	}
	return s.nfse
}

func (s scopes) text(f Field) string {
	r := Rules[f]
	root := s.element(r)
	if root == nil {
		return r.Default
	}
	el := root.FindElement(r.Path)
	if el == nil {
		return r.Default
	}
	t := strings.TrimSpace(el.Text())
	if t == "" {
		return r.Default
	}
	return t
}

func (s scopes) decimal(f Field) decimal.Decimal {
	return ParseDecimal(s.text(f))
}

// ParseDecimal aceita "." ou "," como separador decimal; valor ilegível vira zero.
func ParseDecimal(v string) decimal.Decimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}
