// Package browser implementa fetch.Browser sobre o Chrome via DevTools (chromedp).
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

// Config parâmetros do navegador.
type Config struct {
	Headless       bool
	ExecPath       string        // vazio: Chrome/Chromium do sistema
	DownloadDir    string        // base dos downloads temporários; vazio usa os.TempDir()
	ElementTimeout time.Duration // timeout de Text, Count, Fill, Click...
	QuietWindow    time.Duration // rede sem requisições por este tempo = ociosa
}

// Launcher abre um Chrome isolado por contribuinte.
type Launcher struct {
	cfg Config
	log zerolog.Logger
}

// NewLauncher aplica padrões aos campos zerados.
func NewLauncher(cfg Config, log zerolog.Logger) *Launcher {
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 5 * time.Second
	}
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = 500 * time.Millisecond
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = os.TempDir()
	}
	return &Launcher{cfg: cfg, log: log.With().Str("component", "browser").Logger()}
}

var _ fetch.Browser = (*Launcher)(nil)

// Open inicia o processo do navegador com perfil próprio e downloads interceptados.
// No modo certificado, o Chrome apresenta o certificado instalado no repositório do sistema;
// o .pfx já foi validado antes da abertura.
func (l *Launcher) Open(ctx context.Context, taxpayer entity.Taxpayer) (fetch.PageDriver, error) {
	dlDir, err := os.MkdirTemp(l.cfg.DownloadDir, "nfse-dl-*")
	if err != nil {
		return nil, fmt.Errorf("browser: pasta de downloads: %w", err)
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.WindowSize(1366, 900),
	)
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	log := l.log.With().Str("taxpayer", taxpayer.Name).Logger()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(f string, a ...any) { log.Debug().Msgf(f, a...) }),
		chromedp.WithErrorf(func(f string, a ...any) { log.Warn().Msgf(f, a...) }),
	)

	d := newDriver(tabCtx, func() { cancelTab(); cancelAlloc() }, dlDir, l.cfg, log)
	chromedp.ListenTarget(tabCtx, d.onEvent)

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(dlDir).
			WithEventsEnabled(true),
	); err != nil {
		d.Close()
		return nil, fmt.Errorf("browser: iniciar Chrome: %w", err)
	}
	if taxpayer.UsesCertificate() {
		log.Info().Msg("login por certificado usa o repositório de certificados do sistema")
	}
	return d, nil
}

// ── Driver ────────────────────────────────────────────────────────────────────

type downloadResult struct {
	dl  *fetch.Download
	err error
}

// Driver fetch.PageDriver sobre uma aba do chromedp.
type Driver struct {
	ctx    context.Context
	cancel context.CancelFunc
	dir    string
	cfg    Config
	log    zerolog.Logger

	mu       sync.Mutex
	pending  map[network.RequestID]struct{} // requisições em andamento
	lastBusy time.Time
	names    map[string]string // guid -> nome sugerido
	waiter   chan downloadResult
	closed   bool
}

func newDriver(ctx context.Context, cancel context.CancelFunc, dir string, cfg Config, log zerolog.Logger) *Driver {
	return &Driver{
		ctx:      ctx,
		cancel:   cancel,
		dir:      dir,
		cfg:      cfg,
		log:      log,
		pending:  map[network.RequestID]struct{}{},
		names:    map[string]string{},
		lastBusy: time.Now(),
	}
}

// onEvent roda no loop de eventos do chromedp; não pode bloquear.
// Um redirecionamento reenvia RequestWillBeSent com o mesmo RequestID e termina com um único
// LoadingFinished, por isso as requisições são rastreadas por id.
func (d *Driver) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		d.mu.Lock()
		d.pending[e.RequestID] = struct{}{}
		d.lastBusy = time.Now()
		d.mu.Unlock()
	case *network.EventLoadingFinished:
		d.finish(e.RequestID)
	case *network.EventLoadingFailed:
		d.finish(e.RequestID)
	case *page.EventFrameNavigated:
		if e.Frame != nil && e.Frame.ParentID == "" {
			d.mu.Lock()
			clear(d.pending)
			d.lastBusy = time.Now()
			d.mu.Unlock()
		}
	case *cdpbrowser.EventDownloadWillBegin:
		d.mu.Lock()
		d.names[e.GUID] = e.SuggestedFilename
		d.mu.Unlock()
	case *cdpbrowser.EventDownloadProgress:
		var res downloadResult
		switch e.State {
		case cdpbrowser.DownloadProgressStateCompleted:
			d.mu.Lock()
			name := d.names[e.GUID]
			d.mu.Unlock()
			res.dl = &fetch.Download{SuggestedFilename: name, Path: filepath.Join(d.dir, e.GUID)}
		case cdpbrowser.DownloadProgressStateCanceled:
			res.err = errors.New("download cancelado pelo navegador")
		default:
			return
		}
		d.mu.Lock()
		w := d.waiter
		d.waiter = nil
		d.mu.Unlock()
		if w != nil {
			w <- res
		}
	}
}

func (d *Driver) finish(id network.RequestID) {
	d.mu.Lock()
	delete(d.pending, id)
	d.lastBusy = time.Now()
	d.mu.Unlock()
}

// quiet nenhuma requisição pendente e nenhuma atividade nos últimos QuietWindow.
func (d *Driver) quiet(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) == 0 && now.Sub(d.lastBusy) >= d.cfg.QuietWindow
}

// expectDownload registra quem aguarda o próximo download concluído ou cancelado.
func (d *Driver) expectDownload() (chan downloadResult, func()) {
	w := make(chan downloadResult, 1)
	d.mu.Lock()
	d.waiter = w
	d.mu.Unlock()
	return w, func() {
		d.mu.Lock()
		if d.waiter == w {
			d.waiter = nil
		}
		d.mu.Unlock()
	}
}

// run executa as ações na aba, limitadas por timeout e pelo ctx do chamador.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = d.cfg.ElementTimeout
	}
	tctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(tctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func by(sel fetch.Selector) chromedp.QueryOption {
	if sel.IsXPath() {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, 0, chromedp.Navigate(url))
}

// WaitIdle aguarda o documento carregado e nenhuma requisição de rede por QuietWindow.
func (d *Driver) WaitIdle(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.cfg.ElementTimeout
	}
	deadline := time.Now().Add(timeout)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if d.quiet(time.Now()) {
			var ready string
			if err := d.run(ctx, time.Second, chromedp.Evaluate(`document.readyState`, &ready)); err == nil && ready == "complete" {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("browser: rede não ficou ociosa em %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (d *Driver) WaitVisible(ctx context.Context, sel fetch.Selector, timeout time.Duration) error {
	return d.run(ctx, timeout, chromedp.WaitVisible(string(sel), by(sel)))
}

func (d *Driver) Visible(ctx context.Context, sel fetch.Selector, timeout time.Duration) bool {
	return d.WaitVisible(ctx, sel, timeout) == nil
}

func (d *Driver) Count(ctx context.Context, sel fetch.Selector) (int, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, 0, chromedp.Nodes(string(sel), &nodes, by(sel), chromedp.AtLeast(0)))
	return len(nodes), err
}

func (d *Driver) Text(ctx context.Context, sel fetch.Selector) (string, error) {
	var s string
	err := d.run(ctx, 0, chromedp.Text(string(sel), &s, by(sel)))
	return s, err
}

func (d *Driver) Attribute(ctx context.Context, sel fetch.Selector, name string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := d.run(ctx, 0, chromedp.AttributeValue(string(sel), name, &val, &ok, by(sel)))
	return val, ok, err
}

func (d *Driver) Fill(ctx context.Context, sel fetch.Selector, value string) error {
	return d.run(ctx, 0,
		chromedp.Clear(string(sel), by(sel)),
		chromedp.SendKeys(string(sel), value, by(sel)),
	)
}

func (d *Driver) Click(ctx context.Context, sel fetch.Selector) error {
	return d.run(ctx, 0, chromedp.Click(string(sel), by(sel), chromedp.NodeVisible))
}

// Download registra a espera antes do clique para não perder eventos rápidos.
func (d *Driver) Download(ctx context.Context, trigger fetch.Selector, timeout time.Duration) (*fetch.Download, error) {
	w, release := d.expectDownload()
	defer release()

	if err := d.Click(ctx, trigger); err != nil {
		return nil, fmt.Errorf("browser: clicar em download: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-w:
		return res.dl, res.err
	case <-timer.C:
		return nil, fmt.Errorf("browser: download não concluiu em %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close encerra o Chrome e apaga downloads não movidos.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	if err := os.RemoveAll(d.dir); err != nil {
		return fmt.Errorf("browser: limpar downloads: %w", err)
	}
	return nil
}
