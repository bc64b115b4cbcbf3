package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
)

// Request uma execução: contribuintes em ordem e as opções comuns a todos.
type Request struct {
	Taxpayers []entity.Taxpayer
	Options   Options
}

// RunStatus fotografia de uma execução, atual ou a última concluída.
type RunStatus struct {
	ID         string    `json:"id"`
	Running    bool      `json:"running"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Current    string    `json:"current,omitempty"`
	Total      int       `json:"total"`
	Results    []Result  `json:"results"`
}

// Downloaded soma de notas baixadas na execução.
func (s RunStatus) Downloaded() int {
	n := 0
	for _, r := range s.Results {
		n += r.Downloaded
	}
	return n
}

type run struct {
	status RunStatus
	cancel *CancelToken
	done   chan struct{}
}

// Runner executa uma rodada de download por vez, em goroutine própria.
type Runner struct {
	browser Browser
	certs   CertificateChecker
	reports ReportGenerator
	deps    Deps
	log     zerolog.Logger

	mu     sync.Mutex
	active *run
	last   *run
}

// NewRunner reports pode ser nil (sem relatórios automáticos).
func NewRunner(browser Browser, certs CertificateChecker, reports ReportGenerator, deps Deps) *Runner {
	deps = deps.withDefaults()
	return &Runner{
		browser: browser,
		certs:   certs,
		reports: reports,
		deps:    deps,
		log:     deps.Log.With().Str("component", "runner").Logger(),
	}
}

// Start dispara a execução e devolve seu id. Rejeita com domain.ErrRunInProgress se já houver uma ativa.
// ctx controla apenas o encerramento do processo; o cancelamento do usuário vai por Cancel.
func (r *Runner) Start(ctx context.Context, req Request) (string, error) {
	if len(req.Taxpayers) == 0 {
		return "", fmt.Errorf("%w: nenhum contribuinte selecionado", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return "", domain.ErrRunInProgress
	}
	rn := &run{
		status: RunStatus{
			ID:        uuid.NewString(),
			Running:   true,
			StartedAt: r.deps.Now(),
			Total:     len(req.Taxpayers),
			Results:   []Result{},
		},
		cancel: NewCancelToken(),
		done:   make(chan struct{}),
	}
	r.active = rn
	r.mu.Unlock()

	go r.execute(ctx, rn, req)
	return rn.status.ID, nil
}

// Cancel pede o cancelamento da execução ativa. false se não há execução.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return false
	}
	r.active.cancel.Cancel()
	return true
}

// Status execução ativa ou, na falta dela, a última. ok=false se nunca houve execução.
func (r *Runner) Status() (RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn := r.active
	if rn == nil {
		rn = r.last
	}
	if rn == nil {
		return RunStatus{}, false
	}
	st := rn.status
	st.Results = append([]Result(nil), rn.status.Results...)
	return st, true
}

// Wait bloqueia até a execução ativa (ou a última) terminar.
func (r *Runner) Wait(ctx context.Context) (RunStatus, error) {
	r.mu.Lock()
	rn := r.active
	if rn == nil {
		rn = r.last
	}
	r.mu.Unlock()
	if rn == nil {
		return RunStatus{}, domain.ErrNotFound
	}
	select {
	case <-rn.done:
	case <-ctx.Done():
		return RunStatus{}, ctx.Err()
	}
	st, _ := r.Status()
	return st, nil
}

// Run Start seguido de Wait, para uso em CLI.
func (r *Runner) Run(ctx context.Context, req Request) (RunStatus, error) {
	if _, err := r.Start(ctx, req); err != nil {
		return RunStatus{}, err
	}
	return r.Wait(ctx)
}

func (r *Runner) execute(ctx context.Context, rn *run, req Request) {
	defer func() {
		if p := recover(); p != nil {
			r.alert(rn, "", fmt.Sprintf("falha inesperada na execução: %v", p))
		}
		r.mu.Lock()
		rn.status.Running = false
		rn.status.Current = ""
		rn.status.FinishedAt = r.deps.Now()
		r.last, r.active = rn, nil
		r.mu.Unlock()
		close(rn.done)
	}()

	r.publish(rn, entity.EventInfo, "", fmt.Sprintf("execução iniciada: %d contribuinte(s)", len(req.Taxpayers)))

	for _, tp := range req.Taxpayers {
		if rn.cancel.Cancelled() || ctx.Err() != nil {
			r.markCancelled(rn)
			break
		}
		r.mu.Lock()
		rn.status.Current = tp.Name
		r.mu.Unlock()

		res, err := r.runTaxpayer(ctx, rn, tp, req.Options)

		r.mu.Lock()
		rn.status.Results = append(rn.status.Results, *res)
		r.mu.Unlock()

		if errors.Is(err, domain.ErrCancelled) {
			r.markCancelled(rn)
			break
		}
		if err != nil {
			r.alert(rn, tp.Name, fmt.Sprintf("erro em %s: %v", tp.Name, err))
		}
	}

	st, _ := r.Status()
	r.publish(rn, entity.EventSuccess, "", fmt.Sprintf("execução finalizada: %d nota(s) baixada(s)", st.Downloaded()))
}

func (r *Runner) runTaxpayer(ctx context.Context, rn *run, tp entity.Taxpayer, opts Options) (*Result, error) {
	if tp.UsesCertificate() && r.certs != nil {
		if err := r.certs.Check(tp.CertificatePath, tp.CertificatePassword); err != nil {
			res := NewSession(nil, tp, opts, rn.cancel, r.deps).Result()
			res.Error = err.Error()
			return res, err
		}
	}

	driver, err := r.browser.Open(ctx, tp)
	if err != nil {
		res := NewSession(nil, tp, opts, rn.cancel, r.deps).Result()
		res.Error = err.Error()
		return res, fmt.Errorf("fetch: abrir navegador: %w", err)
	}

	session := NewSession(driver, tp, opts, rn.cancel, r.deps).WithRunID(rn.status.ID)
	res, runErr := session.Run(ctx)
	if cerr := driver.Close(); cerr != nil {
		r.log.Warn().Err(cerr).Str("taxpayer", tp.Name).Msg("falha ao fechar navegador")
	}

	if runErr == nil {
		r.autoReports(rn, res, opts)
	}
	return res, runErr
}

// autoReports gera as planilhas da competência quando algo foi baixado.
func (r *Runner) autoReports(rn *run, res *Result, opts Options) {
	if r.reports == nil || res.Downloaded == 0 || opts.Competence == "" {
		return
	}
	comp, err := period.ParseCompetence(opts.Competence)
	if err != nil {
		return
	}
	dirs := opts.Directions
	if len(dirs) == 0 {
		dirs = []entity.Direction{entity.DirectionIssued, entity.DirectionReceived}
	}
	for _, d := range dirs {
		out, err := r.reports.Auto(res.Folder, res.Taxpayer, comp, d)
		switch {
		case errors.Is(err, domain.ErrNoResults):
			r.publish(rn, entity.EventInfo, res.Taxpayer, fmt.Sprintf("nenhum XML de %s para relatório", d.Label()))
		case err != nil:
			r.publish(rn, entity.EventWarning, res.Taxpayer, fmt.Sprintf("erro ao gerar relatório %s: %v", d.Label(), err))
		default:
			res.Reports = append(res.Reports, out.ReportPath)
			r.publish(rn, entity.EventSuccess, res.Taxpayer, fmt.Sprintf("relatório %s gerado: %d nota(s)", d.Label(), out.Records))
		}
	}
}

func (r *Runner) markCancelled(rn *run) {
	r.mu.Lock()
	rn.status.Cancelled = true
	r.mu.Unlock()
	r.publish(rn, entity.EventWarning, "", "execução cancelada pelo usuário")
}

func (r *Runner) alert(rn *run, taxpayer, msg string) {
	r.log.Error().Str("run_id", rn.status.ID).Str("taxpayer", taxpayer).Msg(msg)
	r.deps.Observer.Publish(entity.RunEvent{
		Time:     r.deps.Now(),
		RunID:    rn.status.ID,
		Level:    entity.EventAlert,
		Taxpayer: taxpayer,
		Message:  msg,
	})
}

func (r *Runner) publish(rn *run, level entity.EventLevel, taxpayer, msg string) {
	r.log.Info().Str("run_id", rn.status.ID).Str("taxpayer", taxpayer).Msg(msg)
	r.deps.Observer.Publish(entity.RunEvent{
		Time:     r.deps.Now(),
		RunID:    rn.status.ID,
		Level:    level,
		Taxpayer: taxpayer,
		Message:  msg,
	})
}
