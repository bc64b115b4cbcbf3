// Comando downloader baixa as NFS-e dos contribuintes cadastrados, sem interface gráfica.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/bootstrap"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("downloader", pflag.ExitOnError)
	only := fs.StringSlice("cnpj", nil, "CNPJs a processar (padrão: todos os cadastrados)")
	fs.String("competence", "", "competência MM/AAAA (vazio = últimos 30 dias)")
	fs.String("download-kind", "both", "xml, pdf ou both")
	fs.String("directions", "issued,received", "sentidos: issued, received")
	fs.String("download-root", "Notas Fiscais", "pasta raiz dos downloads")
	fs.Bool("use-cache", true, "pular notas já baixadas")
	fs.Bool("browser-headless", false, "Chrome sem janela")
	fs.Bool("report-pdf-summary", false, "gerar resumo em PDF junto da planilha")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuração:", err)
		return 2
	}

	app, err := bootstrap.New(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "inicializar:", err)
		return 1
	}
	defer app.Close()

	taxpayers, err := app.Taxpayers.Select(*only)
	if err != nil {
		app.Log.Error().Err(err).Msg("seleção de contribuintes")
		return 1
	}

	opts := app.Options()
	if fs.Changed("download-root") {
		opts.Root = cfg.Download.Root
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			app.Log.Warn().Msg("cancelando: aguardando a nota atual terminar")
			app.Runner.Cancel()
		case <-ctx.Done():
		}
	}()

	status, err := app.Runner.Run(ctx, fetch.Request{Taxpayers: taxpayers, Options: opts})
	if err != nil {
		app.Log.Error().Err(err).Msg("execução")
		if errors.Is(err, domain.ErrInvalidInput) {
			return 2
		}
		return 1
	}

	printSummary(status)
	if status.Cancelled {
		return 130
	}
	return 0
}

func printSummary(st fetch.RunStatus) {
	bold := color.New(color.Bold)
	_, _ = bold.Println("\nResumo")
	for _, r := range st.Results {
		line := fmt.Sprintf("  %-40s baixadas=%d cache=%d fora_competência=%d falhas=%d",
			r.Taxpayer, r.Downloaded, r.SkippedCache, r.SkippedCompetence, r.Failed)
		switch {
		case r.Error != "":
			color.Red("%s erro=%s", line, r.Error)
		case r.Failed > 0:
			color.Yellow("%s", line)
		default:
			color.Green("%s", line)
		}
		for _, rep := range r.Reports {
			fmt.Println("    relatório:", rep)
		}
	}
	if st.Cancelled {
		color.Yellow("Execução cancelada pelo usuário.")
	}
	_, _ = bold.Printf("Total baixado: %d\n", st.Downloaded())
}
