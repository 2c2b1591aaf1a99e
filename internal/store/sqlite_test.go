package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleAppraisal(title string) model.Appraisal {
	return model.Appraisal{
		ItemType:   model.ItemNecklace,
		Title:      title,
		Confidence: model.ConfidenceMedium,
		Details:    []model.Detail{{Label: "Material", Value: "14K Yellow Gold"}},
		OfferLow:   3280,
		OfferHigh:  4687,
	}
}

func TestSQLite_CreateAndListQuotes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	q1, err := st.CreateQuote(ctx, sampleAppraisal("Chain A"))
	require.NoError(t, err)
	assert.NotEmpty(t, q1.ID)
	assert.False(t, q1.CreatedAt.IsZero())

	_, err = st.CreateQuote(ctx, sampleAppraisal("Chain B"))
	require.NoError(t, err)

	quotes, err := st.RecentQuotes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// Round-trip preserves the full appraisal.
	for _, q := range quotes {
		assert.Equal(t, model.ItemNecklace, q.Appraisal.ItemType)
		assert.Equal(t, "14K Yellow Gold", q.Appraisal.Detail("Material"))
	}
}

func TestSQLite_RecentQuotes_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateQuote(ctx, sampleAppraisal("Chain"))
		require.NoError(t, err)
	}

	quotes, err := st.RecentQuotes(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, quotes, 3)

	// Zero limit falls back to the default cap, not zero rows.
	quotes, err = st.RecentQuotes(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, quotes, 5)
}

func TestSQLite_RecentQuotes_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	quotes, err := st.RecentQuotes(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestSQLite_CreateAndListLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	payload := model.LeadPayload{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Item:       "14K Gold Rope Chain",
		OfferRange: "$3,280 – $4,687",
		Corrections: []model.CorrectionSet{
			{Fields: map[string]string{"Material": "18K Gold"}},
		},
	}

	l, err := st.CreateLead(ctx, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)

	leads, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "ada@example.com", leads[0].Payload.Email)
	require.Len(t, leads[0].Payload.Corrections, 1)
	assert.Equal(t, "18K Gold", leads[0].Payload.Corrections[0].Fields["Material"])
}

func TestSQLite_ListLeads_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := st.CreateLead(ctx, model.LeadPayload{Email: "x@example.com"})
		require.NoError(t, err)
	}

	leads, err := st.ListLeads(ctx, LeadFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	leads, err = st.ListLeads(ctx, LeadFilter{Limit: 2, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	// A future Since excludes everything.
	leads, err = st.ListLeads(ctx, LeadFilter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, leads)

	leads, err = st.ListLeads(ctx, LeadFilter{Since: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, leads, 4)
}
