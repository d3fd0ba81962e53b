package draft

// Reason explains why an addition was refused.
type Reason string

const (
	ReasonOutOfStock        Reason = "OUT_OF_STOCK"
	ReasonStockLimitReached Reason = "STOCK_LIMIT_REACHED"
)

// Decision is the outcome of an availability check.
type Decision struct {
	Accepted bool
	Reason   Reason
	// ClampedQty is the maximum quantity that could still be added when the
	// request exceeded the limit (stock minus what the draft already holds).
	ClampedQty int64
}

// CheckAddable decides whether requested more units of an entity fit under
// the current stock level, given what the draft already holds for the same
// entity. Rules, in order:
//
//  1. available <= 0                      → OUT_OF_STOCK
//  2. inCart + requested > available      → STOCK_LIMIT_REACHED, with the
//     remaining headroom reported as ClampedQty
//  3. otherwise                           → accepted
//
// The check runs against a stock snapshot taken at add-time; it is not
// re-queried on later edits. The submission transaction is the final
// authority on availability.
func CheckAddable(available, inCart, requested int64) Decision {
	if available <= 0 {
		return Decision{Reason: ReasonOutOfStock}
	}
	if inCart+requested > available {
		return Decision{
			Reason:     ReasonStockLimitReached,
			ClampedQty: available - inCart,
		}
	}
	return Decision{Accepted: true}
}
