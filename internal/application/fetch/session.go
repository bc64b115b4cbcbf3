// Package fetch conduz o download de NFS-e no portal nacional: autenticação, travessia
// por sentido, período e página, decisão de pular ou baixar cada linha e execução
// sequencial de vários contribuintes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/repository"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// Options o que baixar em uma execução.
type Options struct {
	Root       string // pasta raiz; cada contribuinte ganha uma subpasta
	Competence string // "MM/AAAA"; vazio usa o padrão do portal (últimos 30 dias)
	Kinds      []entity.ArtifactKind
	Directions []entity.Direction
	UseCache   bool
}

// Deps colaboradores compartilhados por sessões e runner.
type Deps struct {
	Ledger   repository.DownloadLedger
	Observer Observer
	Layout   Layout
	Timeouts Timeouts
	Log      zerolog.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Layout.BaseURL == "" {
		d.Layout = DefaultLayout()
	}
	if d.Timeouts == (Timeouts{}) {
		d.Timeouts = DefaultTimeouts()
	}
	return d
}

// Result contadores de um contribuinte. Preenchido também em falha ou cancelamento.
type Result struct {
	Taxpayer          string                   `json:"taxpayer"`
	Folder            string                   `json:"folder"`
	Downloaded        int                      `json:"downloaded"`
	SkippedCache      int                      `json:"skipped_cache"`
	SkippedCompetence int                      `json:"skipped_competence"`
	Failed            int                      `json:"failed"`
	PerDirection      map[entity.Direction]int `json:"per_direction"`
	Reports           []string                 `json:"reports,omitempty"`
	Cancelled         bool                     `json:"cancelled"`
	Error             string                   `json:"error,omitempty"`
}

// Session travessia completa de um contribuinte sobre um PageDriver.
type Session struct {
	driver   PageDriver
	taxpayer entity.Taxpayer
	opts     Options
	cancel   *CancelToken
	deps     Deps
	log      zerolog.Logger
	runID    string

	state      State
	plan       []period.Period
	filter     string // competência exigida nas linhas; vazio = sem filtro
	pdfCounter map[string]int
	result     *Result
}

// NewSession prepara a sessão. O driver pertence ao chamador, que o fecha.
func NewSession(driver PageDriver, taxpayer entity.Taxpayer, opts Options, cancel *CancelToken, deps Deps) *Session {
	deps = deps.withDefaults()
	if cancel == nil {
		cancel = NewCancelToken()
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = []entity.ArtifactKind{entity.ArtifactXML, entity.ArtifactPDF}
	}
	if len(opts.Directions) == 0 {
		opts.Directions = []entity.Direction{entity.DirectionIssued, entity.DirectionReceived}
	}
	folder := pkgnfse.SanitizeFileName(taxpayer.Name)
	return &Session{
		driver:     driver,
		taxpayer:   taxpayer,
		opts:       opts,
		cancel:     cancel,
		deps:       deps,
		log:        deps.Log.With().Str("taxpayer", taxpayer.Name).Logger(),
		state:      StateUnauthenticated,
		pdfCounter: map[string]int{},
		result: &Result{
			Taxpayer:     taxpayer.Name,
			Folder:       filepath.Join(opts.Root, folder),
			PerDirection: map[entity.Direction]int{},
		},
	}
}

// WithRunID marca os eventos emitidos com o id da execução.
func (s *Session) WithRunID(id string) *Session {
	s.runID = id
	return s
}

// State estado atual.
func (s *Session) State() State { return s.state }

// Result contadores até o momento.
func (s *Session) Result() *Result { return s.result }

// Run autentica e percorre os sentidos pedidos. Cancelamento devolve domain.ErrCancelled
// com os contadores parciais em Result; falhas de autenticação são fatais para o contribuinte.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	err := s.run(ctx)
	switch {
	case err == nil:
		s.setState(StateDone)
		s.emit(entity.EventSuccess, "concluído: %d baixada(s), %d ignorada(s) pelo cache, %d com falha",
			s.result.Downloaded, s.result.SkippedCache, s.result.Failed)
	case errors.Is(err, domain.ErrCancelled):
		s.result.Cancelled = true
		s.setState(StateCancelled)
		s.emit(entity.EventWarning, "cancelado: %d baixada(s) até aqui", s.result.Downloaded)
	default:
		s.result.Error = err.Error()
		s.setState(StateFailed)
	}
	return s.result, err
}

func (s *Session) run(ctx context.Context) error {
	plan, err := period.Generate(s.opts.Competence, s.deps.Now())
	if err != nil {
		s.emit(entity.EventWarning, "competência inválida %q, usando os últimos 30 dias", s.opts.Competence)
	}
	s.plan = plan
	if !plan[0].Sentinel {
		comp, _ := period.ParseCompetence(s.opts.Competence)
		s.filter = comp.String()
	}
	s.emit(entity.EventInfo, "%d período(s) de consulta", len(plan))

	if err := os.MkdirAll(s.result.Folder, 0o755); err != nil {
		return fmt.Errorf("fetch: criar pasta do contribuinte: %w", err)
	}

	if err := s.authenticate(ctx); err != nil {
		return err
	}

	for _, desc := range Descriptors(s.deps.Layout, s.opts.Directions) {
		if err := s.checkpoint(ctx); err != nil {
			return err
		}
		if err := s.traverse(ctx, desc); err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				return err
			}
			s.emit(entity.EventError, "erro em %s: %v", desc.Label, err)
		}
	}
	return nil
}

// ── Autenticação ──────────────────────────────────────────────────────────────

func (s *Session) authenticate(ctx context.Context) error {
	l, t := s.deps.Layout, s.deps.Timeouts
	s.setState(StateAuthenticating)

	if err := s.driver.Navigate(ctx, l.URL(l.LoginPath)); err != nil {
		return fmt.Errorf("%w: abrir página de login: %v", domain.ErrAuthentication, err)
	}
	if err := s.driver.WaitIdle(ctx, t.Navigation); err != nil {
		s.log.Debug().Err(err).Msg("login: rede não ficou ociosa")
	}

	if s.taxpayer.UsesCertificate() {
		if err := s.certificateLogin(ctx); err != nil {
			return err
		}
	} else if err := s.passwordLogin(ctx); err != nil {
		return err
	}
	s.setState(StateAuthenticated)
	return nil
}

func (s *Session) certificateLogin(ctx context.Context) error {
	l, t := s.deps.Layout, s.deps.Timeouts

	clicked := false
	for _, sel := range l.CertificateEntry {
		if err := s.driver.Click(ctx, sel); err == nil {
			clicked = true
			break
		}
	}
	if !clicked {
		s.emit(entity.EventWarning, "botão de certificado não encontrado, continuando")
	}

	for attempt := 0; attempt < t.LoginPolls; attempt++ {
		if err := s.checkpoint(ctx); err != nil {
			return err
		}
		for _, marker := range l.LoggedInMarkers {
			if s.driver.Visible(ctx, marker, t.FastCheck) {
				s.emit(entity.EventSuccess, "login com certificado detectado")
				return nil
			}
		}
		if err := s.pause(ctx, t.PollInterval); err != nil {
			return err
		}
	}
	s.emit(entity.EventWarning, "login não detectado claramente, tentando continuar")
	return nil
}

func (s *Session) passwordLogin(ctx context.Context) error {
	l, t := s.deps.Layout, s.deps.Timeouts
	steps := []struct {
		name string
		do   func() error
	}{
		{"preencher CPF/CNPJ", func() error { return s.driver.Fill(ctx, l.LoginUser, s.taxpayer.TaxID) }},
		{"preencher senha", func() error { return s.driver.Fill(ctx, l.LoginPassword, s.taxpayer.Password) }},
		{"enviar", func() error { return s.driver.Click(ctx, l.LoginSubmit) }},
		{"aguardar portal", func() error { return s.driver.WaitIdle(ctx, t.Idle) }},
	}
	for _, st := range steps {
		if err := st.do(); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrAuthentication, st.name, err)
		}
	}
	s.emit(entity.EventSuccess, "login realizado")
	return nil
}

// ── Travessia ─────────────────────────────────────────────────────────────────

func (s *Session) traverse(ctx context.Context, d DirectionDescriptor) error {
	t := s.deps.Timeouts
	s.setState(StateSelectingDirection)
	s.emit(entity.EventInfo, "iniciando NFS-e %s", d.Label)

	if err := s.driver.Navigate(ctx, d.ListingURL); err != nil {
		return fmt.Errorf("fetch: abrir listagem %s: %w", d.Label, err)
	}
	if err := s.driver.WaitIdle(ctx, t.Navigation); err != nil {
		s.log.Debug().Err(err).Str("direction", d.Label).Msg("listagem: rede não ficou ociosa")
	}
	if err := s.pause(ctx, t.Settle); err != nil {
		return err
	}

	before := s.result.Downloaded
	for i, p := range s.plan {
		if err := s.checkpoint(ctx); err != nil {
			return err
		}
		s.emit(entity.EventInfo, "%s: período %d/%d: %s", d.Label, i+1, len(s.plan), p)
		if err := s.processPeriod(ctx, d, p); err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				return err
			}
			s.emit(entity.EventError, "%s: período %s ignorado: %v", d.Label, p, err)
		}
	}
	s.emit(entity.EventSuccess, "%s: %d nota(s) baixada(s)", d.Label, s.result.Downloaded-before)
	return nil
}

func (s *Session) processPeriod(ctx context.Context, d DirectionDescriptor, p period.Period) error {
	if !p.Sentinel {
		if err := s.applyFilter(ctx, p); err != nil {
			return err
		}
	}

	s.setState(StateCheckingEmpty)
	total := s.resultCount(ctx)
	if total == 0 {
		s.emit(entity.EventInfo, "%s: nenhuma nota no período", d.Label)
		return nil
	}
	s.emit(entity.EventInfo, "%s: total de %d nota(s)", d.Label, total)

	processed := 0
	for processed < total {
		if err := s.checkpoint(ctx); err != nil {
			return err
		}
		s.setState(StatePaginatingRows)
		rows, err := s.waitRows(ctx)
		if err != nil {
			s.emit(entity.EventWarning, "%s: linhas não carregaram: %v", d.Label, err)
			break
		}

		for i := 1; i <= rows; i++ {
			if err := s.checkpoint(ctx); err != nil {
				return err
			}
			if err := s.processRow(ctx, d, i); err != nil {
				if errors.Is(err, domain.ErrCancelled) {
					return err
				}
				s.result.Failed++
				s.emit(entity.EventError, "%s: erro na linha %d: %v", d.Label, i, err)
			}
			processed++
		}

		if processed >= total {
			break
		}
		s.setState(StateNextPage)
		more, err := s.nextPage(ctx)
		if err != nil {
			return err
		}
		if !more {
			s.emit(entity.EventInfo, "%s: não há mais páginas", d.Label)
			break
		}
	}
	return nil
}

func (s *Session) applyFilter(ctx context.Context, p period.Period) error {
	l, t := s.deps.Layout, s.deps.Timeouts
	s.setState(StateApplyingFilter)

	start, err := s.firstVisible(ctx, l.StartDate)
	if err != nil {
		return fmt.Errorf("fetch: campo data inicial: %w", err)
	}
	if err := s.driver.Fill(ctx, start, p.StartText()); err != nil {
		return fmt.Errorf("fetch: preencher data inicial: %w", err)
	}
	end, err := s.firstVisible(ctx, l.EndDate)
	if err != nil {
		return fmt.Errorf("fetch: campo data final: %w", err)
	}
	if err := s.driver.Fill(ctx, end, p.EndText()); err != nil {
		return fmt.Errorf("fetch: preencher data final: %w", err)
	}
	if err := s.driver.Click(ctx, l.FilterButton); err != nil {
		return fmt.Errorf("fetch: filtrar: %w", err)
	}
	if err := s.driver.WaitIdle(ctx, t.Idle); err != nil {
		return fmt.Errorf("fetch: aguardar filtro: %w", err)
	}
	return s.pause(ctx, t.Settle)
}

// resultCount 0 quando não há registros ou o total não pôde ser lido.
func (s *Session) resultCount(ctx context.Context) int {
	l, t := s.deps.Layout, s.deps.Timeouts
	if s.driver.Visible(ctx, l.NoResults, t.FastCheck) {
		return 0
	}
	label, err := s.driver.Text(ctx, l.TotalLabel)
	if err != nil {
		s.log.Debug().Err(err).Msg("rótulo de total não encontrado")
		return 0
	}
	n, err := ParseTotal(label)
	if err != nil {
		s.log.Debug().Err(err).Msg("total ilegível")
		return 0
	}
	return n
}

func (s *Session) waitRows(ctx context.Context) (int, error) {
	l, t := s.deps.Layout, s.deps.Timeouts
	if err := s.driver.WaitVisible(ctx, l.Rows, t.Rows); err != nil {
		return 0, err
	}
	n, err := s.driver.Count(ctx, l.Rows)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("nenhuma linha na página")
	}
	return n, nil
}

// nextPage false quando nenhum controle de próxima página está visível.
func (s *Session) nextPage(ctx context.Context) (bool, error) {
	l, t := s.deps.Layout, s.deps.Timeouts
	for _, sel := range l.NextPage {
		if !s.driver.Visible(ctx, sel, t.FastCheck) {
			continue
		}
		if err := s.driver.Click(ctx, sel); err != nil {
			s.log.Debug().Err(err).Str("selector", string(sel)).Msg("próxima página: clique falhou")
			continue
		}
		if err := s.driver.WaitIdle(ctx, t.Idle); err != nil {
			s.log.Debug().Err(err).Msg("próxima página: rede não ficou ociosa")
		}
		return true, s.pause(ctx, t.Settle)
	}
	return false, nil
}

func (s *Session) firstVisible(ctx context.Context, sels []Selector) (Selector, error) {
	var lastErr error
	for _, sel := range sels {
		if err := s.driver.WaitVisible(ctx, sel, s.deps.Timeouts.Element); err != nil {
			lastErr = err
			continue
		}
		return sel, nil
	}
	if lastErr == nil {
		lastErr = errors.New("nenhum seletor configurado")
	}
	return "", lastErr
}

// ── Suporte ──────────────────────────────────────────────────────────────────

func (s *Session) checkpoint(ctx context.Context) error {
	if s.cancel.Cancelled() {
		return domain.ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return nil
}

func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return s.checkpoint(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	case <-timer.C:
		return s.checkpoint(ctx)
	}
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.log.Debug().Str("from", string(s.state)).Str("to", string(st)).Msg("estado")
	s.state = st
}

func (s *Session) emit(level entity.EventLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	var ev *zerolog.Event
	switch level {
	case entity.EventWarning:
		ev = s.log.Warn()
	case entity.EventError, entity.EventAlert:
		ev = s.log.Error()
	default:
		ev = s.log.Info()
	}
	ev.Str("state", string(s.state)).Msg(msg)

	s.deps.Observer.Publish(entity.RunEvent{
		Time:     s.deps.Now(),
		RunID:    s.runID,
		Level:    level,
		Taxpayer: s.taxpayer.Name,
		State:    string(s.state),
		Message:  msg,
	})
}
