package report

import (
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	infrareport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/report"
)

// RecordExtractor lê um XML baixado. (nil, nil) significa arquivo sem NFS-e reconhecível.
type RecordExtractor interface {
	Parse(path string, role entity.PartyRole) (*entity.InvoiceRecord, error)
}

// Renderer grava a planilha (e opcionalmente o resumo PDF). Falhas chegam como false.
type Renderer interface {
	Render(records []*entity.InvoiceRecord, dir entity.Direction, outputPath string) bool
	PDFSummary(in infrareport.SummaryInput, outputPath string) bool
}
