package repository

// DownloadLedger registro de downloads concluídos, usado para não baixar a mesma nota duas vezes.
//
//go:generate mockgen -destination=mocks/mock_ledger.go -source=ledger_repository.go DownloadLedger
type DownloadLedger interface {
	// Fingerprint digest determinístico de (contribuinte, competência, contraparte).
	Fingerprint(taxpayer, competence, counterparty string) string
	Seen(fingerprint string) bool
	// Record marca o fingerprint como baixado agora e persiste imediatamente.
	Record(fingerprint string)
	// Prune remove entradas mais antigas que a retenção e devolve quantas saíram.
	Prune(retentionDays int) int
}
