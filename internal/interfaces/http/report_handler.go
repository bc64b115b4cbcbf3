package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/dto"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

type reportBuilder interface {
	Manual(files []string, dir entity.Direction, output string) (*appreport.Output, error)
}

// ReportHandler relatório manual a partir de XMLs escolhidos.
type ReportHandler struct {
	uc reportBuilder
}

func NewReportHandler(uc reportBuilder) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Create POST /reports {"files": [...], "direction": "issued", "output": "/x/rel.xlsx"}
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var in struct {
		Files     []string `json:"files"`
		Direction string   `json:"direction"`
		Output    string   `json:"output"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	// vazio ou desconhecido cai em emitidas
	dir := entity.ParseDirections(in.Direction)[0]

	out, err := h.uc.Manual(in.Files, dir, in.Output)
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNoResults):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
