package appraise

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snappy-gold/appraisal-api/internal/pricing"
)

var allPlaceholders = []string{
	phGoldSpot, phSilverSpot,
	phGold10K, phGold14K, phGold18K, phGold24K,
	phSilverSterling, phSilverFine,
}

func testSpot() pricing.SpotPrice {
	return pricing.SpotPrice{Date: "2026-08-29", Gold: 5000, Silver: 90}
}

func oneImage() []Image {
	return []Image{{MediaType: "image/jpeg", Data: "aGVsbG8="}}
}

func TestCompose_RequiresImages(t *testing.T) {
	_, err := Compose(Request{}, testSpot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one image")
}

func TestCompose_BlockOrdering(t *testing.T) {
	req := Request{Images: []Image{
		{MediaType: "image/jpeg", Data: "Zmlyc3Q="},
		{MediaType: "image/png", Data: "c2Vjb25k"},
	}}

	p, err := Compose(req, testSpot())
	require.NoError(t, err)

	require.Len(t, p.UserBlocks, 3)
	require.NotNil(t, p.UserBlocks[0].Image)
	assert.Equal(t, "Zmlyc3Q=", p.UserBlocks[0].Image.Data)
	require.NotNil(t, p.UserBlocks[1].Image)
	assert.Equal(t, "image/png", p.UserBlocks[1].Image.MediaType)
	assert.Nil(t, p.UserBlocks[2].Image)
	assert.NotEmpty(t, p.UserBlocks[2].Text)
}

func TestCompose_DefaultMediaType(t *testing.T) {
	p, err := Compose(Request{Images: []Image{{Data: "aGVsbG8="}}}, testSpot())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", p.UserBlocks[0].Image.MediaType)
}

func TestCompose_SubstitutesEveryPlaceholder(t *testing.T) {
	p, err := Compose(Request{Images: oneImage()}, testSpot())
	require.NoError(t, err)

	text := p.UserText()
	for _, ph := range allPlaceholders {
		assert.NotContains(t, text, ph)
	}
	assert.NotContains(t, p.System, "PER_GRAM")

	// Live values appear in the pricing text.
	assert.Contains(t, text, "$5,000")
	assert.Contains(t, text, "$93.73")
	assert.Contains(t, text, "$2.68")
}

func TestCompose_SentinelForUnusableValues(t *testing.T) {
	p, err := Compose(Request{Images: oneImage()}, pricing.SpotPrice{Date: "2026-08-29"})
	require.NoError(t, err)

	text := p.UserText()
	for _, ph := range allPlaceholders {
		assert.NotContains(t, text, ph)
	}
	assert.Contains(t, text, missingValueSentinel)
}

func TestCompose_MultiPhotoPreamble(t *testing.T) {
	single, err := Compose(Request{Images: oneImage()}, testSpot())
	require.NoError(t, err)
	assert.NotContains(t, single.UserText(), "photos of the same item")

	multi, err := Compose(Request{Images: []Image{
		{Data: "YQ=="}, {Data: "Yg=="}, {Data: "Yw=="},
	}}, testSpot())
	require.NoError(t, err)
	assert.Contains(t, multi.UserText(), "3 photos of the same item")
}

func TestCompose_CorrectionsAppended(t *testing.T) {
	req := Request{
		Images:      oneImage(),
		Corrections: "Metal Type: 18K Gold\nAdditional info: weighed at 40g",
	}
	p, err := Compose(req, testSpot())
	require.NoError(t, err)

	text := p.UserText()
	assert.Contains(t, text, "The user has corrected the following details")
	assert.Contains(t, text, "Metal Type: 18K Gold")
	// Corrections come after the pricing rules.
	assert.Greater(t,
		strings.Index(text, "Metal Type: 18K Gold"),
		strings.Index(text, "WORKED EXAMPLE"),
	)
}

func TestCompose_WorkedExampleUsesLiveRate(t *testing.T) {
	p, err := Compose(Request{Images: oneImage()}, testSpot())
	require.NoError(t, err)

	// 35g and 50g at the 14K rate of $93.73/g: the low bound truncates to
	// $3,280, the high bound rounds to $4,687.
	text := p.UserText()
	assert.Contains(t, text, "$3,280")
	assert.NotContains(t, text, "$3,281")
	assert.Contains(t, text, "$4,687")
}

func TestSystemPrompt_ContainsAllCategories(t *testing.T) {
	sys := systemPrompt()

	assert.Contains(t, sys, "FORMAT A")
	assert.Contains(t, sys, "FORMAT B")
	assert.Contains(t, sys, "FORMAT C")
	assert.Contains(t, sys, "FIRST determine what category")
	assert.Contains(t, sys, `set item_type to "other"`)

	// The static prompt must stay cacheable: no per-day values.
	for _, ph := range allPlaceholders {
		assert.NotContains(t, sys, ph)
	}
}

func TestCategories_SchemaLabels(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 3)

	for _, cat := range cats {
		assert.NotEmpty(t, cat.DetailLabels, cat.Name)
		for _, label := range cat.DetailLabels {
			assert.Contains(t, cat.ResponseExample, label, cat.Name)
		}
	}

	// Only jewelry carries melt-priced rules.
	assert.Empty(t, cats[0].PricedRules)
	assert.NotEmpty(t, cats[1].PricedRules)
	assert.Empty(t, cats[2].PricedRules)
}
