package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// Row dados lidos de uma linha da listagem.
type Row struct {
	Index        int
	Competence   string
	Counterparty string
	Status       string
}

// processRow decide pular ou baixar a linha. Erro significa linha com falha (já contada como processada).
func (s *Session) processRow(ctx context.Context, d DirectionDescriptor, index int) error {
	l := s.deps.Layout

	competence, err := s.driver.Text(ctx, l.RowCell(index, l.CellCompetence))
	if err != nil {
		return fmt.Errorf("ler competência: %w", err)
	}
	row := Row{Index: index, Competence: strings.TrimSpace(competence)}

	if s.filter != "" && row.Competence != s.filter {
		s.result.SkippedCompetence++
		return nil
	}

	party, err := s.driver.Text(ctx, l.RowCell(index, l.CellCounterparty))
	if err != nil {
		return fmt.Errorf("ler contraparte: %w", err)
	}
	row.Counterparty = pkgnfse.CounterpartyName(party)
	if row.Counterparty == "" {
		row.Counterparty = "SemNome"
	}

	title, _, err := s.driver.Attribute(ctx, l.RowCell(index, l.StatusImage), l.StatusAttribute)
	row.Status = StatusLabel(title, err)

	var fingerprint string
	if s.opts.UseCache && s.deps.Ledger != nil {
		fingerprint = s.deps.Ledger.Fingerprint(s.taxpayer.Name, row.Competence, row.Counterparty)
		if s.deps.Ledger.Seen(fingerprint) {
			s.result.SkippedCache++
			return nil
		}
	}

	s.setState(StateProcessingRow)
	s.emit(entity.EventInfo, "%s: baixando %s | %s", d.Label, truncate(row.Counterparty, 40), row.Status)

	saved, err := s.downloadRow(ctx, d, row)
	if saved > 0 {
		if fingerprint != "" {
			s.deps.Ledger.Record(fingerprint)
		}
		s.result.Downloaded++
		s.result.PerDirection[d.Direction]++
	}
	if err != nil {
		return err
	}
	if saved == 0 {
		return errors.New("nenhum arquivo baixado")
	}
	return nil
}

// downloadRow abre o menu da linha e baixa cada artefato pedido, XML antes de PDF.
// Falha de um artefato não impede o outro; devolve quantos foram gravados.
func (s *Session) downloadRow(ctx context.Context, d DirectionDescriptor, row Row) (int, error) {
	if err := s.openMenu(ctx, row.Index); err != nil {
		return 0, fmt.Errorf("abrir menu: %w", err)
	}

	base := filepath.Join(s.result.Folder, d.Folder, CompetenceFolder(row.Competence))
	if d.StatusSubfolder {
		base = filepath.Join(base, row.Status)
	}

	saved := 0
	for _, kind := range s.opts.Kinds {
		if err := s.checkpoint(ctx); err != nil {
			return saved, err
		}
		var (
			path string
			err  error
		)
		switch kind {
		case entity.ArtifactXML:
			path, err = s.downloadXML(ctx, row, filepath.Join(base, kind.Folder()))
		case entity.ArtifactPDF:
			path, err = s.downloadPDF(ctx, row, filepath.Join(base, kind.Folder()))
		default:
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return saved, s.checkpoint(ctx)
			}
			s.emit(entity.EventError, "  erro %s: %v", kind.Folder(), err)
			continue
		}
		saved++
		s.emit(entity.EventSuccess, "  %s salvo: %s", kind.Folder(), filepath.Base(path))
	}
	return saved, nil
}

func (s *Session) openMenu(ctx context.Context, index int) error {
	l := s.deps.Layout
	if err := s.driver.Click(ctx, l.RowCell(index, l.RowMenu)); err != nil {
		return err
	}
	return s.pause(ctx, s.deps.Timeouts.MenuSettle)
}

func (s *Session) downloadXML(ctx context.Context, row Row, dir string) (string, error) {
	l, t := s.deps.Layout, s.deps.Timeouts
	dl, err := s.driver.Download(ctx, l.RowLink(row.Index, l.XMLLinkText), t.Download)
	if err != nil {
		return "", err
	}
	name := pkgnfse.SanitizeFileName(dl.SuggestedFilename)
	if name == "" {
		name = row.Counterparty + ".xml"
	}
	target := filepath.Join(dir, name)
	return target, moveFile(dl.Path, target)
}

// downloadPDF reabre o menu (o download do XML o fecha) e grava <contraparte>_<n>.pdf,
// com n sequencial por contraparte dentro da sessão.
func (s *Session) downloadPDF(ctx context.Context, row Row, dir string) (string, error) {
	l, t := s.deps.Layout, s.deps.Timeouts
	if err := s.openMenu(ctx, row.Index); err != nil {
		return "", fmt.Errorf("reabrir menu: %w", err)
	}
	link := l.RowLink(row.Index, l.PDFLinkText)
	if !s.driver.Visible(ctx, link, t.LinkVisible) {
		return "", errors.New("link do DANFS-e não visível após abrir o menu")
	}

	s.pdfCounter[row.Counterparty]++
	name := fmt.Sprintf("%s_%d.pdf", row.Counterparty, s.pdfCounter[row.Counterparty])

	dl, err := s.driver.Download(ctx, link, t.Download)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	return target, moveFile(dl.Path, target)
}

// moveFile move o download temporário para o destino final, copiando quando o rename
// atravessa sistemas de arquivos.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("criar pasta: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("abrir download: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("criar arquivo: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copiar download: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("fechar arquivo: %w", err)
	}
	in.Close()
	_ = os.Remove(src)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
