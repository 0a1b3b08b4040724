package domain

// Commission rates are fixed business constants: 2% charged to each side of
// the transaction, 4% combined. Deliberately not configurable.
const (
	SellerCommissionRate = 0.02
	BuyerCommissionRate  = 0.02
)

// Commission is derived on demand from a settled property; it is never
// stored in the registry, only mirrored into the reporting ledger.
type Commission struct {
	SellerShare float64 `json:"seller_share"`
	BuyerShare  float64 `json:"buyer_share"`
	Total       float64 `json:"total"`
	FinalPrice  float64 `json:"final_price"`
}

// CalculateCommission computes the brokerage earnings for a completed
// transaction. Deterministic given the settlement price. Calling it on a
// property that is not Sold or Rented is an error; it never mutates state.
func CalculateCommission(p *Property) (Commission, error) {
	if !p.Status.Settled() {
		return Commission{}, ErrNotSettled
	}
	final := p.SettlementPrice()
	seller := final * SellerCommissionRate
	buyer := final * BuyerCommissionRate
	return Commission{
		SellerShare: seller,
		BuyerShare:  buyer,
		Total:       seller + buyer,
		FinalPrice:  final,
	}, nil
}

// ProjectCommission is the non-authoritative "potential earnings" figure
// shown for in-flight transactions. It is computed from the listing price,
// never persisted, and never reconciled against the settled commission.
// The bool result is false when the property has no projection (not in an
// ordered state).
func ProjectCommission(p *Property) (Commission, bool) {
	if p.Status != StatusOrdered && p.Status != StatusPaymentPending {
		return Commission{}, false
	}
	seller := p.Price * SellerCommissionRate
	buyer := p.Price * BuyerCommissionRate
	return Commission{
		SellerShare: seller,
		BuyerShare:  buyer,
		Total:       seller + buyer,
		FinalPrice:  p.Price,
	}, true
}
