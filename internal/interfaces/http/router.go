package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	Runs      *RunHandler
	Taxpayers *TaxpayerHandler
	Reports   *ReportHandler // opcional
	Service   string
}

// Router registra as rotas da API de controle (somente loopback).
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service})
	})

	runs := app.Group("/runs")
	runs.Post("/", deps.Runs.Start)
	runs.Post("/cancel", deps.Runs.Cancel)
	runs.Get("/status", deps.Runs.Status)
	runs.Get("/events", deps.Runs.Events)

	taxpayers := app.Group("/taxpayers")
	taxpayers.Get("/", deps.Taxpayers.List)
	taxpayers.Post("/", deps.Taxpayers.Create)
	taxpayers.Put("/default-folder", deps.Taxpayers.SetDefaultFolder)
	taxpayers.Put("/:cnpj", deps.Taxpayers.Update)
	taxpayers.Delete("/:cnpj", deps.Taxpayers.Delete)

	if deps.Reports != nil {
		app.Post("/reports", deps.Reports.Create)
	}
}

// NewApp fiber com o tratamento de erro padrão da API.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"code": "ERROR", "message": err.Error()})
		},
	})
}
