package entity

import "time"

// EventLevel severidade de um evento do feed de status.
type EventLevel string

const (
	EventInfo    EventLevel = "info"
	EventSuccess EventLevel = "success"
	EventWarning EventLevel = "warning"
	EventError   EventLevel = "error"
	EventAlert   EventLevel = "alert" // falha de execução ou de contribuinte: exige atenção do usuário
)

// RunEvent mensagem de progresso emitida durante uma execução de download.
type RunEvent struct {
	Seq      uint64     `json:"seq"`
	Time     time.Time  `json:"time"`
	RunID    string     `json:"run_id,omitempty"`
	Level    EventLevel `json:"level"`
	Taxpayer string     `json:"taxpayer,omitempty"`
	State    string     `json:"state,omitempty"`
	Message  string     `json:"message"`
}
