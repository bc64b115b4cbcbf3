// Package bootstrap monta os componentes a partir da configuração, compartilhado pelos binários.
package bootstrap

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/browser"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/certificate"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/feed"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/ledger"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/nfse"
	infrareport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/store"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/config"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/logger"
)

// App componentes prontos para uso.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Taxpayers *store.TaxpayerStore
	Ledger    *ledger.JSONLedger
	Feed      *feed.Feed
	Reports   *appreport.UseCase
	Runner    *fetch.Runner
}

// NewLogger logger da aplicação conforme a configuração.
func NewLogger(cfg *config.Config, console io.Writer) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Out:   console,
	})
}

// NewReports caso de uso de relatórios (também usado isoladamente pelo CLI de relatório).
func NewReports(cfg *config.Config, log zerolog.Logger) *appreport.UseCase {
	return appreport.NewUseCase(nfse.NewExtractor(log), infrareport.NewRenderer(log), cfg.Report.PDFSummary, log)
}

// OpenTaxpayers cadastro de empresas com a chave de criptografia.
func OpenTaxpayers(cfg *config.Config, log zerolog.Logger) (*store.TaxpayerStore, error) {
	cipher, err := store.LoadOrCreateKey(cfg.Files.Key)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Files.Taxpayers, cipher, log)
}

// New monta tudo e poda o cache de downloads. console recebe o log e o feed colorido.
func New(cfg *config.Config, console io.Writer) (*App, error) {
	lg, err := NewLogger(cfg, console)
	if err != nil {
		return nil, err
	}
	log := lg.Zerolog()

	taxpayers, err := OpenTaxpayers(cfg, log)
	if err != nil {
		lg.Close()
		return nil, fmt.Errorf("bootstrap: cadastro de empresas: %w", err)
	}

	led := ledger.Open(cfg.Files.Ledger, log)
	if n := led.Prune(cfg.Files.LedgerRetentionDays); n > 0 {
		log.Info().Int("removed", n).Msg("cache de downloads podado")
	}

	events := feed.New(feed.DefaultCapacity, log, feed.NewConsole(console))
	reports := NewReports(cfg, log)

	deps := fetch.Deps{
		Ledger:   led,
		Observer: events,
		Layout:   Layout(cfg),
		Timeouts: Timeouts(cfg),
		Log:      log,
	}
	launcher := browser.NewLauncher(browser.Config{
		Headless:       cfg.Browser.Headless,
		ExecPath:       cfg.Browser.ExecPath,
		ElementTimeout: cfg.Timeouts.Element,
	}, log)
	runner := fetch.NewRunner(launcher, certificate.NewChecker(nil), reports, deps)

	return &App{
		Config:    cfg,
		Log:       lg,
		Taxpayers: taxpayers,
		Ledger:    led,
		Feed:      events,
		Reports:   reports,
		Runner:    runner,
	}, nil
}

// Layout seletores padrão com endereços da configuração.
func Layout(cfg *config.Config) fetch.Layout {
	l := fetch.DefaultLayout()
	if cfg.Portal.BaseURL != "" {
		l.BaseURL = cfg.Portal.BaseURL
	}
	if cfg.Portal.LoginPath != "" {
		l.LoginPath = cfg.Portal.LoginPath
	}
	if cfg.Portal.IssuedPath != "" {
		l.IssuedPath = cfg.Portal.IssuedPath
	}
	if cfg.Portal.ReceivedPath != "" {
		l.ReceivedPath = cfg.Portal.ReceivedPath
	}
	return l
}

// Timeouts padrão com os limites configuráveis aplicados.
func Timeouts(cfg *config.Config) fetch.Timeouts {
	t := fetch.DefaultTimeouts()
	if cfg.Timeouts.Navigation > 0 {
		t.Navigation = cfg.Timeouts.Navigation
	}
	if cfg.Timeouts.Element > 0 {
		t.Element = cfg.Timeouts.Element
	}
	if cfg.Timeouts.Download > 0 {
		t.Download = cfg.Timeouts.Download
	}
	if cfg.Timeouts.FastCheck > 0 {
		t.FastCheck = cfg.Timeouts.FastCheck
	}
	return t
}

// Options opções padrão de execução. A pasta do cadastro vence a da configuração.
func (a *App) Options() fetch.Options {
	root := a.Config.Download.Root
	if f := a.Taxpayers.DefaultFolder(); f != "" {
		root = f
	}
	return fetch.Options{
		Root:       root,
		Competence: strings.TrimSpace(a.Config.Download.Competence),
		Kinds:      entity.ParseArtifactKinds(a.Config.Download.Kind),
		Directions: entity.ParseDirections(a.Config.Download.Directions),
		UseCache:   a.Config.Download.UseCache,
	}
}

// Close drena o feed e fecha o log.
func (a *App) Close() {
	a.Feed.Close()
	if err := a.Log.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("fechar arquivo de log")
	}
}
