package nfse_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/nfse"
)

func newExtractor() *nfse.Extractor { return nfse.NewExtractor(zerolog.Nop()) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Emitidas ─────────────────────────────────────────────────────────────────

func TestParse_EmitidaPreencheTomador(t *testing.T) {
	rec, err := newExtractor().Parse(filepath.Join("testdata", "nfse_emitida.xml"), entity.PartyRecipient)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "123", rec.Number)
	assert.Equal(t, "1", rec.Series)
	assert.Equal(t, "2026-01-15", rec.EmissionDay())
	assert.Equal(t, "2026-01-15", rec.Competence)
	assert.Equal(t, "100", rec.Status)
	assert.Equal(t, "010101", rec.ServiceCode)
	assert.Equal(t, "Consultoria em tecnologia", rec.ServiceDescription)
	assert.Equal(t, "São Paulo", rec.ServiceLocation)
	assert.Equal(t, "nfse_emitida.xml", rec.SourceFile)

	assert.Equal(t, entity.PartyRecipient, rec.Party.Role)
	assert.Equal(t, "12.345.678/0001-99", rec.Party.Document)
	assert.Equal(t, "CLIENTE EXEMPLO SA", rec.Party.Name)
	assert.Equal(t, "3304557", rec.Party.MunicipalityCode)
	assert.Empty(t, rec.Party.MunicipalRegistration)

	assert.True(t, rec.ServiceValue.Equal(dec("1500")))
	assert.True(t, rec.CalculationBase.Equal(dec("1500")))
	assert.True(t, rec.TaxRate.Equal(dec("2.5")), "vírgula como separador decimal")
	assert.True(t, rec.ISSQNValue.Equal(dec("37.5")))
	assert.True(t, rec.WithheldValue.IsZero())
	assert.True(t, rec.NetValue.Equal(dec("1462.5")))
	assert.True(t, rec.SimplesTaxPercent.Equal(dec("6")))
}

// ── Recebidas ────────────────────────────────────────────────────────────────

func TestParse_RecebidaPreenchePrestador(t *testing.T) {
	rec, err := newExtractor().Parse(filepath.Join("testdata", "nfse_emitida.xml"), entity.PartyIssuer)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, entity.PartyIssuer, rec.Party.Role)
	assert.Equal(t, "11.222.333/0001-81", rec.Party.Document)
	assert.Equal(t, "PRESTADORA EXEMPLO LTDA", rec.Party.Name, "nome vem de emit")
	assert.Equal(t, "998877", rec.Party.MunicipalRegistration)
	assert.Equal(t, "3550308", rec.Party.MunicipalityCode)
}

func TestParse_DocumentoCPF(t *testing.T) {
	xml := `<NFSe><infNFSe><nNFSe>9</nNFSe><DPS><infDPS>
		<toma><CPF>12345678901</CPF><xNome>Fulano</xNome></toma>
	</infDPS></DPS></infNFSe></NFSe>`
	rec, err := newExtractor().ParseBytes([]byte(xml), entity.PartyRecipient, "cpf.xml")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "123.456.789-01", rec.Party.Document)
}

func TestParse_DocumentoTamanhoInvalidoFicaVazio(t *testing.T) {
	xml := `<NFSe><infNFSe><DPS><infDPS><toma><CNPJ>123</CNPJ></toma></infDPS></DPS></infNFSe></NFSe>`
	rec, err := newExtractor().ParseBytes([]byte(xml), entity.PartyRecipient, "x.xml")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "", rec.Party.Document)
}

// ── Fallbacks ────────────────────────────────────────────────────────────────

func TestParse_SemDPSUsaValoresPadrao(t *testing.T) {
	xml := `<NFSe xmlns="http://www.sped.fazenda.gov.br/nfse"><infNFSe><nNFSe>77</nNFSe></infNFSe></NFSe>`
	rec, err := newExtractor().ParseBytes([]byte(xml), entity.PartyRecipient, "parcial.xml")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "77", rec.Number)
	assert.Equal(t, nfse.Rules[nfse.FieldSeries].Default, rec.Series)
	assert.Equal(t, "", rec.Competence)
	assert.Equal(t, "", rec.Party.Name)
	assert.True(t, rec.ServiceValue.IsZero())
	assert.True(t, rec.NetValue.IsZero())
}

func TestParse_DecimalIlegivelViraZero(t *testing.T) {
	xml := `<NFSe><infNFSe><valores><vLiq>abc</vLiq><vISSQN>10,5</vISSQN></valores></infNFSe></NFSe>`
	rec, err := newExtractor().ParseBytes([]byte(xml), entity.PartyRecipient, "x.xml")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.NetValue.IsZero())
	assert.True(t, rec.ISSQNValue.Equal(dec("10.5")))
}

func TestParse_SemInfNFSeDevolveNil(t *testing.T) {
	rec, err := newExtractor().ParseBytes([]byte(`<outro><x/></outro>`), entity.PartyRecipient, "x.xml")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParse_XMLMalformadoDevolveErro(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruim.xml")
	require.NoError(t, os.WriteFile(path, []byte("<NFSe><<infNFSe>"), 0o644))
	rec, err := newExtractor().Parse(path, entity.PartyRecipient)
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestParse_ArquivoInexistente(t *testing.T) {
	rec, err := newExtractor().Parse(filepath.Join(t.TempDir(), "nada.xml"), entity.PartyRecipient)
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestParseDecimal(t *testing.T) {
	cases := map[string]string{
		"1500.00":  "1500",
		"2,50":     "2.5",
		"1.234,56": "1234.56",
		"":         "0",
		"x":        "0",
	}
	for in, want := range cases {
		assert.True(t, nfse.ParseDecimal(in).Equal(dec(want)), "entrada %q", in)
	}
}
