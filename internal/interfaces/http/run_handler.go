package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/dto"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/repository"
)

// runController contrato mínimo do *fetch.Runner usado pelo handler.
type runController interface {
	Start(ctx context.Context, req fetch.Request) (string, error)
	Cancel() bool
	Status() (fetch.RunStatus, bool)
}

// eventSource histórico do feed de eventos.
type eventSource interface {
	Since(after uint64) []entity.RunEvent
	LastSeq() uint64
}

// RunHandler inicia, cancela e acompanha execuções.
type RunHandler struct {
	baseCtx   context.Context
	runner    runController
	taxpayers repository.TaxpayerRepository
	events    eventSource
	defaults  fetch.Options
}

// NewRunHandler baseCtx encerra a execução no desligamento do processo; defaults preenche
// o que o corpo da requisição não informar.
func NewRunHandler(baseCtx context.Context, runner runController, taxpayers repository.TaxpayerRepository, events eventSource, defaults fetch.Options) *RunHandler {
	return &RunHandler{baseCtx: baseCtx, runner: runner, taxpayers: taxpayers, events: events, defaults: defaults}
}

// Start POST /runs
func (h *RunHandler) Start(c *fiber.Ctx) error {
	var in dto.StartRunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
		}
	}

	list, err := h.taxpayers.Select(in.TaxIDs)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	id, err := h.runner.Start(h.baseCtx, fetch.Request{Taxpayers: list, Options: h.options(in)})
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RUN_IN_PROGRESS", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.StartRunResponse{ID: id})
}

func (h *RunHandler) options(in dto.StartRunRequest) fetch.Options {
	opts := h.defaults
	opts.Competence = strings.TrimSpace(in.Competence)
	if f := strings.TrimSpace(in.Folder); f != "" {
		opts.Root = f
	} else if f := h.taxpayers.DefaultFolder(); f != "" {
		opts.Root = f
	}
	if in.Kind != "" {
		opts.Kinds = entity.ParseArtifactKinds(in.Kind)
	}
	if len(in.Directions) > 0 {
		opts.Directions = entity.ParseDirections(strings.Join(in.Directions, ","))
	}
	if in.UseCache != nil {
		opts.UseCache = *in.UseCache
	}
	return opts
}

// Cancel POST /runs/cancel
func (h *RunHandler) Cancel(c *fiber.Ctx) error {
	if !h.runner.Cancel() {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NO_ACTIVE_RUN", Message: "nenhuma execução em andamento"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"cancelling": true})
}

// Status GET /runs/status
func (h *RunHandler) Status(c *fiber.Ctx) error {
	st, ok := h.runner.Status()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nenhuma execução registrada"})
	}
	return c.JSON(st)
}

// Events GET /runs/events?since=N
func (h *RunHandler) Events(c *fiber.Ctx) error {
	since := c.QueryInt("since", 0)
	if since < 0 {
		since = 0
	}
	return c.JSON(dto.EventsResponse{
		Events: h.events.Since(uint64(since)),
		Last:   h.events.LastSeq(),
	})
}
