// Package lead relays submitted leads to the intake destinations: a generic
// webhook, a Notion database, and Salesforce. Delivery is best-effort by
// design: the visitor already has their offer on screen, and no intake outage
// should take the submission flow down with it.
package lead

import (
	"context"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

// Sink delivers one lead to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, lead model.Lead) error
}
