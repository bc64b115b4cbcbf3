package fetch

// State estado da sessão de download de um contribuinte.
type State string

const (
	StateUnauthenticated    State = "unauthenticated"
	StateAuthenticating     State = "authenticating"
	StateAuthenticated      State = "authenticated"
	StateSelectingDirection State = "selecting_direction"
	StateApplyingFilter     State = "applying_filter"
	StateCheckingEmpty      State = "checking_empty"
	StatePaginatingRows     State = "paginating_rows"
	StateProcessingRow      State = "processing_row"
	StateNextPage           State = "next_page"
	StateDone               State = "done"
	StateCancelled          State = "cancelled"
	StateFailed             State = "failed"
)

// Terminal indica estados finais.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}
