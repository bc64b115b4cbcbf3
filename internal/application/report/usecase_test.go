package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
	infrareport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/report"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeExtractor struct {
	parsed []string
	roles  []entity.PartyRole
}

func (f *fakeExtractor) Parse(path string, role entity.PartyRole) (*entity.InvoiceRecord, error) {
	f.parsed = append(f.parsed, path)
	f.roles = append(f.roles, role)
	switch filepath.Base(path) {
	case "ruim.xml":
		return nil, errors.New("malformado")
	case "vazio.xml":
		return nil, nil
	}
	return &entity.InvoiceRecord{Number: filepath.Base(path)}, nil
}

type fakeRenderer struct {
	ok       bool
	records  []*entity.InvoiceRecord
	output   string
	dir      entity.Direction
	summary  *infrareport.SummaryInput
	pdfPath  string
}

func (f *fakeRenderer) Render(records []*entity.InvoiceRecord, dir entity.Direction, outputPath string) bool {
	f.records, f.dir, f.output = records, dir, outputPath
	return f.ok
}

func (f *fakeRenderer) PDFSummary(in infrareport.SummaryInput, outputPath string) bool {
	f.summary, f.pdfPath = &in, outputPath
	return true
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0o644))
}

var fixed = time.Date(2026, 3, 15, 14, 5, 9, 0, time.UTC)

// ── Auto ─────────────────────────────────────────────────────────────────────

func TestAuto_EmitidasVarreSubpastasDeStatus(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "EMITIDAS", "01-2026")
	touch(t, filepath.Join(base, "Autorizada", "XML", "a.xml"))
	touch(t, filepath.Join(base, "Cancelada", "XML", "b.xml"))
	touch(t, filepath.Join(base, "Autorizada", "PDF", "a.pdf"))
	touch(t, filepath.Join(base, "Autorizada", "XML", "ruim.xml"))

	ext := &fakeExtractor{}
	ren := &fakeRenderer{ok: true}
	uc := appreport.NewUseCase(ext, ren, false, zerolog.Nop()).WithClock(func() time.Time { return fixed })

	out, err := uc.Auto(root, "ACME", period.Competence{Month: 1, Year: 2026}, entity.DirectionIssued)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Files)
	assert.Equal(t, 2, out.Records, "XML malformado é omitido")
	assert.Equal(t, filepath.Join(root, "EMITIDAS", "Relatório_Emitidas_01-2026_20260315_140509.xlsx"), out.ReportPath)
	assert.Equal(t, out.ReportPath, ren.output)
	assert.Empty(t, out.SummaryPath)
	for _, r := range ext.roles {
		assert.Equal(t, entity.PartyRecipient, r)
	}
}

func TestAuto_RecebidasUsaPrestador(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "RECEBIDAS", "02-2026", "XML", "c.xml"))

	ext := &fakeExtractor{}
	ren := &fakeRenderer{ok: true}
	uc := appreport.NewUseCase(ext, ren, true, zerolog.Nop()).WithClock(func() time.Time { return fixed })

	out, err := uc.Auto(root, "ACME", period.Competence{Month: 2, Year: 2026}, entity.DirectionReceived)
	require.NoError(t, err)
	assert.Equal(t, []entity.PartyRole{entity.PartyIssuer}, ext.roles)
	assert.Equal(t, entity.DirectionReceived, ren.dir)

	require.NotNil(t, ren.summary)
	assert.Equal(t, "ACME", ren.summary.TaxpayerName)
	assert.Equal(t, "02/2026", ren.summary.Competence)
	assert.Equal(t, filepath.Join(root, "RECEBIDAS", "Relatório_Recebidas_02-2026_20260315_140509.pdf"), out.SummaryPath)
}

func TestAuto_SemPastaDevolveErrNoResults(t *testing.T) {
	uc := appreport.NewUseCase(&fakeExtractor{}, &fakeRenderer{ok: true}, false, zerolog.Nop())
	_, err := uc.Auto(t.TempDir(), "ACME", period.Competence{Month: 1, Year: 2026}, entity.DirectionIssued)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestAuto_PastaSemXMLDevolveErrNoResults(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "EMITIDAS", "01-2026", "Autorizada", "PDF", "a.pdf"))
	uc := appreport.NewUseCase(&fakeExtractor{}, &fakeRenderer{ok: true}, false, zerolog.Nop())
	_, err := uc.Auto(root, "ACME", period.Competence{Month: 1, Year: 2026}, entity.DirectionIssued)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

// ── Manual ───────────────────────────────────────────────────────────────────

func TestManual_FalhaDoRendererViraErro(t *testing.T) {
	uc := appreport.NewUseCase(&fakeExtractor{}, &fakeRenderer{ok: false}, false, zerolog.Nop())
	_, err := uc.Manual([]string{"a.xml"}, entity.DirectionIssued, filepath.Join(t.TempDir(), "r.xlsx"))
	assert.Error(t, err)
}

func TestManual_ValidaEntrada(t *testing.T) {
	uc := appreport.NewUseCase(&fakeExtractor{}, &fakeRenderer{ok: true}, false, zerolog.Nop())
	_, err := uc.Manual(nil, entity.DirectionIssued, "r.xlsx")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Manual([]string{"a.xml"}, entity.DirectionIssued, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestManual_OmiteArquivosSemNFSe(t *testing.T) {
	ren := &fakeRenderer{ok: true}
	uc := appreport.NewUseCase(&fakeExtractor{}, ren, false, zerolog.Nop())
	out, err := uc.Manual([]string{"a.xml", "vazio.xml", "b.xml"}, entity.DirectionIssued, "r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 3, out.Files)
	assert.Equal(t, 2, out.Records)
	assert.Len(t, ren.records, 2)
}

func TestFileName(t *testing.T) {
	got := appreport.FileName(entity.DirectionReceived, period.Competence{Month: 12, Year: 2025}, fixed)
	assert.Equal(t, "Relatório_Recebidas_12-2025_20260315_140509.xlsx", got)
}
