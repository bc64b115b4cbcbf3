package dto

import "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"

// StartRunRequest entrada para iniciar uma execução. Campos vazios usam a configuração.
type StartRunRequest struct {
	TaxIDs     []string `json:"taxpayers"`  // CNPJs; vazio = todos os cadastrados
	Competence string   `json:"competence"` // MM/AAAA; vazio = últimos 30 dias
	Kind       string   `json:"kind"`       // xml | pdf | both
	Directions []string `json:"directions"` // issued, received
	UseCache   *bool    `json:"use_cache"`
	Folder     string   `json:"folder"`
}

// StartRunResponse id da execução aceita.
type StartRunResponse struct {
	ID string `json:"id"`
}

// EventsResponse eventos após "since" e o último número emitido.
type EventsResponse struct {
	Events []entity.RunEvent `json:"events"`
	Last   uint64            `json:"last"`
}
