// Package report monta relatórios a partir dos XML já baixados: automático por competência
// (ao fim do download de cada contribuinte) ou manual a partir de uma lista de arquivos.
package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
	infrareport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/report"
)

// Output resultado de um relatório gerado.
type Output struct {
	ReportPath  string `json:"report_path"`
	SummaryPath string `json:"summary_path,omitempty"` // vazio quando o resumo PDF está desligado ou falhou
	Files       int    `json:"files"`                  // XML encontrados
	Records     int    `json:"records"`                // XML que viraram linha
}

// UseCase gera relatórios XLSX de NFS-e.
type UseCase struct {
	extractor  RecordExtractor
	renderer   Renderer
	pdfSummary bool
	log        zerolog.Logger
	now        func() time.Time
}

// NewUseCase constrói o caso de uso. pdfSummary liga o resumo PDF ao lado de cada planilha.
func NewUseCase(extractor RecordExtractor, renderer Renderer, pdfSummary bool, log zerolog.Logger) *UseCase {
	return &UseCase{
		extractor:  extractor,
		renderer:   renderer,
		pdfSummary: pdfSummary,
		log:        log.With().Str("component", "report_usecase").Logger(),
		now:        time.Now,
	}
}

// WithClock troca o relógio usado no nome do arquivo.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// FileName Relatório_<Label>_<MM-AAAA>_<AAAAmmdd_HHMMSS>.xlsx
func FileName(dir entity.Direction, comp period.Competence, at time.Time) string {
	return fmt.Sprintf("Relatório_%s_%s_%s.xlsx", dir.Label(), comp.FolderName(), at.Format("20060102_150405"))
}

// ScanXML lista os .xml dentro de pastas XML sob root, em ordem lexical.
func ScanXML(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != entity.ArtifactXML.Folder() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report: varrer %s: %w", root, err)
	}
	return files, nil
}

// Auto gera o relatório de um sentido para a competência, varrendo
// <taxpayerDir>/<DIR>/<MM-AAAA>/**/XML/*.xml e gravando em <taxpayerDir>/<DIR>/.
// Sem XML devolve domain.ErrNoResults.
func (uc *UseCase) Auto(taxpayerDir, taxpayerName string, comp period.Competence, dir entity.Direction) (*Output, error) {
	source := filepath.Join(taxpayerDir, dir.Folder(), comp.FolderName())
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoResults
		}
		return nil, fmt.Errorf("report: %w", err)
	}
	files, err := ScanXML(source)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.ErrNoResults
	}
	output := filepath.Join(taxpayerDir, dir.Folder(), FileName(dir, comp, uc.now()))
	return uc.build(files, dir, output, taxpayerName, comp.String())
}

// Manual gera o relatório a partir de arquivos escolhidos pelo usuário.
func (uc *UseCase) Manual(files []string, dir entity.Direction, output string) (*Output, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nenhum XML informado", domain.ErrInvalidInput)
	}
	if output == "" {
		return nil, fmt.Errorf("%w: arquivo de saída obrigatório", domain.ErrInvalidInput)
	}
	return uc.build(files, dir, output, "", "")
}

func (uc *UseCase) build(files []string, dir entity.Direction, output, taxpayerName, competence string) (*Output, error) {
	records := make([]*entity.InvoiceRecord, 0, len(files))
	for _, f := range files {
		rec, err := uc.extractor.Parse(f, dir.PartyRole())
		if err != nil {
			uc.log.Warn().Err(err).Str("file", f).Msg("XML ignorado")
			continue
		}
		if rec == nil {
			continue
		}
		records = append(records, rec)
	}

	if !uc.renderer.Render(records, dir, output) {
		return nil, fmt.Errorf("report: não foi possível gravar %s", filepath.Base(output))
	}
	out := &Output{ReportPath: output, Files: len(files), Records: len(records)}

	if uc.pdfSummary {
		pdfPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".pdf"
		ok := uc.renderer.PDFSummary(infrareport.SummaryInput{
			TaxpayerName: taxpayerName,
			Direction:    dir,
			Competence:   competence,
			Records:      records,
			GeneratedAt:  uc.now(),
		}, pdfPath)
		if ok {
			out.SummaryPath = pdfPath
		}
	}

	uc.log.Info().
		Str("direction", string(dir)).
		Int("files", out.Files).
		Int("records", out.Records).
		Str("path", output).
		Msg("relatório concluído")
	return out, nil
}
