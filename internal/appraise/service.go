package appraise

import (
	"context"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
)

// Runner runs one full appraisal pass: spot price lookup, prompt composition,
// model call, parse.
type Runner interface {
	Run(ctx context.Context, req Request) (*model.Appraisal, error)
}

// Service wires the spot price cache to the appraisal client. It is the
// production Runner.
type Service struct {
	spots  *pricing.Cache
	client *Client
}

// NewService creates the appraisal service.
func NewService(spots *pricing.Cache, client *Client) *Service {
	return &Service{spots: spots, client: client}
}

// Run performs one appraisal. The spot lookup cannot fail (it degrades to
// stale or default prices), so the only error sources are composition and the
// model call.
func (s *Service) Run(ctx context.Context, req Request) (*model.Appraisal, error) {
	sp := s.spots.Prices(ctx)
	payload, err := Compose(req, sp)
	if err != nil {
		return nil, err
	}
	return s.client.Analyze(ctx, payload)
}
