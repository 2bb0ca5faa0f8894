package domain

import "time"

// Funding is a single contribution to the platform. Amount and contributor
// details are stored as sent by the client, so they live in Attributes.
type Funding struct {
	ID          string
	FundingDate time.Time
	Attributes  Attributes
}

// FundingAmountKey is the attribute holding the contributed amount.
const FundingAmountKey = "amount"

// Amount returns the numeric amount of the contribution, if it has one.
func (f *Funding) Amount() (float64, bool) {
	switch v := f.Attributes[FundingAmountKey].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// MarshalJSON renders the funding as a flat document.
func (f Funding) MarshalJSON() ([]byte, error) {
	return marshalFlat(map[string]any{
		"id":          f.ID,
		"fundingDate": f.FundingDate,
	}, f.Attributes)
}

// UnmarshalJSON reads a flat funding document.
func (f *Funding) UnmarshalJSON(data []byte) error {
	p, err := DecodePatch(data)
	if err != nil {
		return err
	}
	id, _, err := p.popString("id")
	if err != nil {
		return err
	}
	date, _, err := p.popTime("fundingDate")
	if err != nil {
		return err
	}
	*f = Funding{ID: id, FundingDate: date, Attributes: p.clone().attributes()}
	return nil
}

// NewFundingFromPayload builds a funding record from a create payload.
// The funding date is always assigned by the server.
func NewFundingFromPayload(p Patch) *Funding {
	rest := p.clone()
	delete(rest, "fundingDate")
	return &Funding{Attributes: rest.attributes()}
}
