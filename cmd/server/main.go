// Comando server expõe a API de controle em loopback para a interface gráfica.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/bootstrap"
	httpRouter "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/interfaces/http"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/config"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	fs.String("http-host", "127.0.0.1", "endereço de escuta")
	fs.Int("http-port", 8765, "porta de escuta")
	fs.Bool("browser-headless", false, "Chrome sem janela")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	app, err := bootstrap.New(cfg, os.Stdout)
	if err != nil {
		panic("inicializar: " + err.Error())
	}
	defer app.Close()
	log := app.Log

	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("addr", cfg.HTTP.Addr()).
		Msg("iniciando API de controle")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	srv := httpRouter.NewApp(cfg.App.Name)
	srv.Use(recover.New())
	httpRouter.Router(srv, httpRouter.RouterDeps{
		Runs:      httpRouter.NewRunHandler(ctx, app.Runner, app.Taxpayers, app.Feed, app.Options()),
		Taxpayers: httpRouter.NewTaxpayerHandler(app.Taxpayers),
		Reports:   httpRouter.NewReportHandler(app.Reports),
		Service:   cfg.App.Name,
	})

	go func() {
		if err := srv.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")
	if app.Runner.Cancel() {
		log.Info().Msg("execução ativa cancelada")
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelWait()
	if _, err := app.Runner.Wait(waitCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Debug().Err(err).Msg("aguardar execução")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
