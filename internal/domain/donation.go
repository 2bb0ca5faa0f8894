package domain

import (
	"encoding/json"
	"time"
)

// DonationStatus is the lifecycle status of a donation request.
// The set is open: clients may store any status string.
type DonationStatus string

// Well-known donation request statuses.
const (
	DonationStatusPending    DonationStatus = "pending"
	DonationStatusInProgress DonationStatus = "inprogress"
	DonationStatusDone       DonationStatus = "done"
	DonationStatusCanceled   DonationStatus = "canceled"
)

// DonationRequest is a request for blood posted by a requester.
// Donation details (recipient, blood group, hospital, district, date, ...) are kept in Attributes.
type DonationRequest struct {
	ID             string
	RequesterEmail string
	Status         DonationStatus
	CreatedAt      time.Time
	Attributes     Attributes
}

// MarshalJSON renders the request as a flat document.
func (d DonationRequest) MarshalJSON() ([]byte, error) {
	return marshalFlat(map[string]any{
		"id":             d.ID,
		"requesterEmail": d.RequesterEmail,
		"status":         d.Status,
		"createdAt":      d.CreatedAt,
	}, d.Attributes)
}

// UnmarshalJSON reads a flat donation request document.
func (d *DonationRequest) UnmarshalJSON(data []byte) error {
	p, err := DecodePatch(data)
	if err != nil {
		return err
	}
	id, _, err := p.popString("id")
	if err != nil {
		return err
	}
	patch, err := NewDonationRequestPatch(p)
	if err != nil {
		return err
	}
	*d = DonationRequest{ID: id}
	patch.Apply(d)
	if d.Attributes == nil {
		d.Attributes = Attributes{}
	}
	return nil
}

// NewDonationRequestFromPayload builds a donation request from a create payload.
func NewDonationRequestFromPayload(p Patch) (*DonationRequest, error) {
	patch, err := NewDonationRequestPatch(p)
	if err != nil {
		return nil, err
	}
	d := &DonationRequest{Attributes: Attributes{}}
	patch.Apply(d)
	return d, nil
}

// DonationRequestPatch is a partial update of a donation request document.
type DonationRequestPatch struct {
	RequesterEmail *string
	Status         *DonationStatus
	CreatedAt      *time.Time
	Attributes     Attributes
}

// NewDonationRequestPatch splits a client payload into typed fields and free-form attributes.
func NewDonationRequestPatch(p Patch) (DonationRequestPatch, error) {
	rest := p.clone()

	var patch DonationRequestPatch
	if email, ok, err := rest.popString("requesterEmail"); err != nil {
		return DonationRequestPatch{}, err
	} else if ok {
		patch.RequesterEmail = &email
	}
	if status, ok, err := rest.popString("status"); err != nil {
		return DonationRequestPatch{}, err
	} else if ok {
		s := DonationStatus(status)
		patch.Status = &s
	}
	if createdAt, ok, err := rest.popTime("createdAt"); err != nil {
		return DonationRequestPatch{}, err
	} else if ok {
		patch.CreatedAt = &createdAt
	}
	patch.Attributes = rest.attributes()
	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p DonationRequestPatch) IsEmpty() bool {
	return p.RequesterEmail == nil && p.Status == nil && p.CreatedAt == nil && len(p.Attributes) == 0
}

// Apply merges the patch into d.
func (p DonationRequestPatch) Apply(d *DonationRequest) {
	if p.RequesterEmail != nil {
		d.RequesterEmail = *p.RequesterEmail
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.CreatedAt != nil {
		d.CreatedAt = *p.CreatedAt
	}
	if len(p.Attributes) > 0 && d.Attributes == nil {
		d.Attributes = Attributes{}
	}
	for k, v := range p.Attributes {
		d.Attributes[k] = v
	}
}

// AttributesJSON encodes the patch attributes for storage.
func (p DonationRequestPatch) AttributesJSON() ([]byte, error) {
	if p.Attributes == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Attributes)
}
