// Package store persists quotes and leads. Quotes power the recent-quotes
// feed and internal reporting; leads are the local copy of what the relay
// sent out, kept so a sink outage never loses a submission.
package store

import (
	"context"
	"time"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for the appraisal service.
type Store interface {
	// Quotes
	CreateQuote(ctx context.Context, a model.Appraisal) (*model.Quote, error)
	RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error)

	// Leads
	CreateLead(ctx context.Context, payload model.LeadPayload) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
