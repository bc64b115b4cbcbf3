package fetch

import "sync/atomic"

// CancelToken sinal cooperativo de cancelamento, consultado nos pontos de checagem da execução.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken cria um token não cancelado.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel pede o cancelamento. Idempotente.
func (c *CancelToken) Cancel() { c.flag.Store(true) }

// Cancelled indica se o cancelamento foi pedido.
func (c *CancelToken) Cancelled() bool {
	return c != nil && c.flag.Load()
}
