package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/dto"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/repository"
)

// TaxpayerHandler cadastro de empresas. As respostas nunca trazem senhas.
type TaxpayerHandler struct {
	repo repository.TaxpayerRepository
}

func NewTaxpayerHandler(repo repository.TaxpayerRepository) *TaxpayerHandler {
	return &TaxpayerHandler{repo: repo}
}

// List GET /taxpayers
func (h *TaxpayerHandler) List(c *fiber.Ctx) error {
	list := h.repo.List()
	out := make([]dto.TaxpayerResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.NewTaxpayerResponse(t))
	}
	return c.JSON(fiber.Map{"items": out, "default_folder": h.repo.DefaultFolder()})
}

// Create POST /taxpayers
func (h *TaxpayerHandler) Create(c *fiber.Ctx) error {
	var in dto.TaxpayerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	t := in.ToEntity()
	if err := h.repo.Create(t); err != nil {
		return writeStoreError(c, err)
	}
	saved, err := h.repo.GetByTaxID(t.TaxID)
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTaxpayerResponse(saved))
}

// Update PUT /taxpayers/:cnpj
func (h *TaxpayerHandler) Update(c *fiber.Ctx) error {
	var in dto.TaxpayerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	in.CNPJ = c.Params("cnpj")
	if err := h.repo.Update(in.ToEntity()); err != nil {
		return writeStoreError(c, err)
	}
	saved, err := h.repo.GetByTaxID(in.CNPJ)
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(dto.NewTaxpayerResponse(saved))
}

// Delete DELETE /taxpayers/:cnpj
func (h *TaxpayerHandler) Delete(c *fiber.Ctx) error {
	if err := h.repo.Delete(c.Params("cnpj")); err != nil {
		return writeStoreError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetDefaultFolder PUT /taxpayers/default-folder
func (h *TaxpayerHandler) SetDefaultFolder(c *fiber.Ctx) error {
	var in struct {
		Folder string `json:"folder"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if err := h.repo.SetDefaultFolder(in.Folder); err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(fiber.Map{"default_folder": h.repo.DefaultFolder()})
}

func writeStoreError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrCertificateNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
