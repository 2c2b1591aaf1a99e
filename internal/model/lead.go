package model

import "time"

// LeadPayload is the flat record relayed to the lead intake sinks once a
// visitor submits their contact details. It snapshots the current appraisal
// and the correction history so the intake side sees what the visitor saw.
type LeadPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Item        string   `json:"item"`
	OfferRange  string   `json:"offerRange"`
	Description string   `json:"description"`
	Details     []Detail `json:"details"`
	OfferNotes  string   `json:"offerNotes"`
	Confidence  string   `json:"confidence"`
	ItemType    string   `json:"itemType"`

	Corrections []CorrectionSet `json:"corrections,omitempty"`

	ShippingMethod string `json:"shippingMethod,omitempty"`
	Address        string `json:"address,omitempty"`

	// Attribution metadata passed through from the storefront (flow source,
	// experiment variant, UTM parameters, client IP). Opaque to the core.
	Source      string            `json:"source,omitempty"`
	Variant     string            `json:"variant,omitempty"`
	Attribution map[string]string `json:"attribution,omitempty"`
	IP          string            `json:"ip,omitempty"`

	// Image is a single compressed data-URL of the first photo, for the
	// intake side's reference only.
	Image string `json:"image,omitempty"`
}

// BuildLeadPayload assembles a LeadPayload from an appraisal and its
// correction history. A nil appraisal produces an empty item snapshot
// (direct-quote leads have no photo flow).
func BuildLeadPayload(a *Appraisal, history []CorrectionSet) LeadPayload {
	p := LeadPayload{}
	if a != nil {
		p.Item = a.Title
		p.OfferRange = a.OfferRange()
		p.Description = a.Description
		p.Details = a.Details
		p.OfferNotes = a.OfferNotes
		p.Confidence = string(a.Confidence)
		p.ItemType = string(a.ItemType)
	}
	p.Corrections = history
	return p
}

// Quote is a persisted appraisal result, powering the recent-quotes feed and
// internal reporting. Contact data never lands here.
type Quote struct {
	ID        string    `json:"id"`
	Appraisal Appraisal `json:"appraisal"`
	CreatedAt time.Time `json:"created_at"`
}

// Lead is a persisted lead submission.
type Lead struct {
	ID        string      `json:"id"`
	Payload   LeadPayload `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}
