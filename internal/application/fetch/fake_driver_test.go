package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

// fakeRow linha da listagem simulada.
type fakeRow struct {
	competence string
	party      string
	status     string
	statusErr  bool
	xmlName    string
	failXML    bool
	failPDF    bool
	failMenu   bool
}

// fakePortal portal roteirizado: linhas por (listagem, data inicial do filtro), paginadas.
type fakePortal struct {
	mu sync.Mutex

	layout  fetch.Layout
	tmp     string
	perPage int

	listings map[string]map[string][]fakeRow // url -> data inicial ("" = sem filtro) -> linhas

	failLogin     bool
	failFilterFor string // data inicial cujo filtro falha
	loggedIn      bool   // marcador pós-login visível
	certEntry     bool   // botão de certificado presente

	url   string
	start string
	page  int

	fills     []string
	clicks    []fetch.Selector
	downloads []fetch.Selector
	textReads []fetch.Selector
	navigated []string
	closed    bool

	onDownload func(n int)
}

func newFakePortal(tmp string) *fakePortal {
	return &fakePortal{
		layout:    fetch.DefaultLayout(),
		tmp:       tmp,
		perPage:   10,
		listings:  map[string]map[string][]fakeRow{},
		loggedIn:  true,
		certEntry: true,
	}
}

func (p *fakePortal) issuedURL() string   { return p.layout.URL(p.layout.IssuedPath) }
func (p *fakePortal) receivedURL() string { return p.layout.URL(p.layout.ReceivedPath) }

func (p *fakePortal) setRows(url, start string, rows ...fakeRow) {
	if p.listings[url] == nil {
		p.listings[url] = map[string][]fakeRow{}
	}
	p.listings[url][start] = rows
}

// ── PageDriver ────────────────────────────────────────────────────────────────

func (p *fakePortal) allRows() []fakeRow {
	return p.listings[p.url][p.start]
}

func (p *fakePortal) pageRows() []fakeRow {
	all := p.allRows()
	from := p.page * p.perPage
	if from >= len(all) {
		return nil
	}
	to := from + p.perPage
	if to > len(all) {
		to = len(all)
	}
	return all[from:to]
}

func (p *fakePortal) rowFor(sel fetch.Selector, css string) (fakeRow, bool) {
	for i, r := range p.pageRows() {
		if sel == p.layout.RowCell(i+1, css) {
			return r, true
		}
	}
	return fakeRow{}, false
}

func (p *fakePortal) linkFor(sel fetch.Selector) (fakeRow, entity.ArtifactKind, bool) {
	for i, r := range p.pageRows() {
		switch sel {
		case p.layout.RowLink(i+1, p.layout.XMLLinkText):
			return r, entity.ArtifactXML, true
		case p.layout.RowLink(i+1, p.layout.PDFLinkText):
			return r, entity.ArtifactPDF, true
		}
	}
	return fakeRow{}, "", false
}

func (p *fakePortal) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url, p.start, p.page = url, "", 0
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePortal) WaitIdle(context.Context, time.Duration) error { return nil }

func (p *fakePortal) WaitVisible(_ context.Context, sel fetch.Selector, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sel == p.layout.Rows && len(p.pageRows()) == 0 {
		return errors.New("timeout aguardando linhas")
	}
	return nil
}

func (p *fakePortal) Visible(_ context.Context, sel fetch.Selector, _ time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case sel == p.layout.NoResults:
		return len(p.allRows()) == 0
	case sel == p.layout.NextPage[0]:
		return (p.page+1)*p.perPage < len(p.allRows())
	case sel == p.layout.NextPage[1]:
		return false
	}
	for _, m := range p.layout.LoggedInMarkers {
		if sel == m {
			return p.loggedIn
		}
	}
	if _, _, ok := p.linkFor(sel); ok {
		return true
	}
	return false
}

func (p *fakePortal) Count(_ context.Context, sel fetch.Selector) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sel != p.layout.Rows {
		return 0, fmt.Errorf("seletor inesperado %s", sel)
	}
	return len(p.pageRows()), nil
}

func (p *fakePortal) Text(_ context.Context, sel fetch.Selector) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textReads = append(p.textReads, sel)
	if sel == p.layout.TotalLabel {
		return fmt.Sprintf("Total de %d registros", len(p.allRows())), nil
	}
	if r, ok := p.rowFor(sel, p.layout.CellCompetence); ok {
		return " " + r.competence + " ", nil
	}
	if r, ok := p.rowFor(sel, p.layout.CellCounterparty); ok {
		return r.party, nil
	}
	return "", fmt.Errorf("elemento não encontrado: %s", sel)
}

func (p *fakePortal) Attribute(_ context.Context, sel fetch.Selector, name string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.rowFor(sel, p.layout.StatusImage); ok && name == p.layout.StatusAttribute {
		if r.statusErr {
			return "", false, errors.New("célula ilegível")
		}
		return r.status, r.status != "", nil
	}
	return "", false, fmt.Errorf("elemento não encontrado: %s", sel)
}

func (p *fakePortal) Fill(_ context.Context, sel fetch.Selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills = append(p.fills, value)
	if sel == p.layout.StartDate[0] {
		if value == p.failFilterFor {
			return errors.New("campo desabilitado")
		}
		p.start, p.page = value, 0
	}
	return nil
}

func (p *fakePortal) Click(_ context.Context, sel fetch.Selector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, sel)
	switch {
	case sel == p.layout.LoginSubmit && p.failLogin:
		return errors.New("credenciais recusadas")
	case sel == p.layout.NextPage[0]:
		p.page++
		return nil
	case sel == p.layout.CertificateEntry[0] || sel == p.layout.CertificateEntry[1]:
		if !p.certEntry {
			return errors.New("botão ausente")
		}
		return nil
	}
	if r, ok := p.rowFor(sel, p.layout.RowMenu); ok && r.failMenu {
		return errors.New("menu não abriu")
	}
	return nil
}

func (p *fakePortal) Download(_ context.Context, trigger fetch.Selector, _ time.Duration) (*fetch.Download, error) {
	p.mu.Lock()
	r, kind, ok := p.linkFor(trigger)
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("link não encontrado: %s", trigger)
	}
	p.downloads = append(p.downloads, trigger)
	n := len(p.downloads)
	cb := p.onDownload
	p.mu.Unlock()

	if cb != nil {
		cb(n)
	}
	if (kind == entity.ArtifactXML && r.failXML) || (kind == entity.ArtifactPDF && r.failPDF) {
		return nil, errors.New("download expirou")
	}
	suggested := r.xmlName
	if kind == entity.ArtifactPDF {
		suggested = "DANFSe.pdf"
	}
	tmp := filepath.Join(p.tmp, fmt.Sprintf("dl-%d", n))
	if err := os.WriteFile(tmp, []byte(strings.ToUpper(string(kind))), 0o644); err != nil {
		return nil, err
	}
	return &fetch.Download{SuggestedFilename: suggested, Path: tmp}, nil
}

func (p *fakePortal) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePortal) clicked(sel fetch.Selector) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == sel {
			n++
		}
	}
	return n
}

// fakeBrowser entrega sempre o mesmo portal; block segura Open até ser liberado.
type fakeBrowser struct {
	mu     sync.Mutex
	portal *fakePortal
	opened []string
	block  chan struct{}
}

func (b *fakeBrowser) Open(ctx context.Context, tp entity.Taxpayer) (fetch.PageDriver, error) {
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	b.opened = append(b.opened, tp.Name)
	b.mu.Unlock()
	return b.portal, nil
}

// recorder Observer que guarda os eventos.
type recorder struct {
	mu     sync.Mutex
	events []entity.RunEvent
}

func (r *recorder) Publish(ev entity.RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) levels(level entity.EventLevel) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Level == level {
			out = append(out, ev.Message)
		}
	}
	return out
}
