package lead

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/pkg/salesforce"
)

// defaultLeadObject is the standard Salesforce Lead SObject.
const defaultLeadObject = "Lead"

// SalesforceSink inserts one Lead record per submission.
type SalesforceSink struct {
	client salesforce.Client
	object string
}

// NewSalesforceSink creates a Salesforce sink. An empty object name uses the
// standard Lead SObject.
func NewSalesforceSink(client salesforce.Client, object string) *SalesforceSink {
	if object == "" {
		object = defaultLeadObject
	}
	return &SalesforceSink{client: client, object: object}
}

func (s *SalesforceSink) Name() string { return "salesforce" }

func (s *SalesforceSink) Deliver(ctx context.Context, lead model.Lead) error {
	p := lead.Payload

	// Salesforce requires LastName and Company on Lead; individuals selling
	// personal items have no company.
	record := map[string]any{
		"FirstName":   p.FirstName,
		"LastName":    orDefault(strings.TrimSpace(p.LastName), "Unknown"),
		"Email":       p.Email,
		"Company":     "Individual",
		"LeadSource":  orDefault(p.Source, "Web"),
		"Description": intakeNotes(p),
	}
	if p.Phone != "" {
		record["Phone"] = p.Phone
	}

	if _, err := s.client.InsertOne(ctx, s.object, record); err != nil {
		return eris.Wrap(err, "salesforce sink: insert lead")
	}
	return nil
}
