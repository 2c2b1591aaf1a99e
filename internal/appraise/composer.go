package appraise

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
	"github.com/snappy-gold/appraisal-api/pkg/anthropic"
)

// missingValueSentinel stands in for a melt value that could not be computed.
// The spot cache never fails, so this should not appear in practice; the
// composer substitutes it rather than crashing if it ever does.
const missingValueSentinel = "$—"

// Image is one captured photo, base64-encoded without the data-URL prefix.
type Image struct {
	MediaType string
	Data      string
}

// Request is everything needed to compose one appraisal call: the photos in
// capture order (order is meaningful, multi-angle evidence) and optional
// serialized user corrections.
type Request struct {
	Images      []Image
	Corrections string
}

// Payload is a composed outbound prompt: a static cacheable system text and
// the user content blocks, images first, instruction text last.
type Payload struct {
	System     string
	UserBlocks []anthropic.Block
}

// UserText returns the trailing instruction text of the payload, or "".
func (p Payload) UserText() string {
	if n := len(p.UserBlocks); n > 0 {
		return p.UserBlocks[n-1].Text
	}
	return ""
}

// systemPrompt assembles the static portion of the appraisal prompt: persona,
// self-classification instruction, assessment guidelines, and each category's
// response schema and rules. It contains no pricing placeholders, so the
// client caches it across requests.
func systemPrompt() string {
	var b strings.Builder

	b.WriteString(`You are an expert appraiser for Snappy, a modern luxury goods and precious metals buyer. Analyze the provided image(s) and provide a preliminary assessment.

CRITICAL: FIRST determine what category this item falls into:
1. WATCH — any wristwatch (Rolex, Omega, Cartier, AP, Patek Philippe, etc.)
2. JEWELRY/METAL — rings, necklaces, chains, bracelets, earrings, gold/silver bars, coins
3. LUXURY GOODS — designer handbags, purses, wallets, belts, shoes, sunglasses (Louis Vuitton, Chanel, Hermès, Gucci, Dior, Prada, Goyard, Bottega Veneta, Balenciaga, Fendi, YSL, Celine, Cartier accessories, etc.)

This affects EVERYTHING about your response — the detail fields, pricing method, and description style are completely different.

IMPORTANT GUIDELINES FOR ASSESSMENT:
- If an item appears to be gold, ASSUME it is real gold. Estimate the karat (10K, 14K, or 18K) based on the color/hue — lighter yellow suggests 10K, classic yellow suggests 14K, rich deep yellow suggests 18K.
- If diamonds or gemstones are visible, ASSUME they are genuine unless there are obvious visual signs they are not (e.g. clearly plastic, costume jewelry construction).
- If a watch appears to be a known brand, ASSUME it is authentic unless there are obvious signs of being counterfeit.
- If a luxury good appears to be a known brand, ASSUME it is authentic. Look for brand stamps, logos, hardware, stitching quality, and material texture.
- If silver-colored metal is present, assess whether it is likely sterling silver, white gold, or platinum based on visual cues.
- Be optimistic but not unreasonable. Give the seller the benefit of the doubt. Final verification happens in person.
- Never use the word "AI" in any of your responses.

Respond ONLY in valid JSON, no markdown fences.`)

	for _, cat := range Categories() {
		b.WriteString("\n\n═══════════════════════════════════════\n")
		b.WriteString(cat.Heading)
		b.WriteString("\n═══════════════════════════════════════\n")
		b.WriteString(cat.ResponseExample)
		b.WriteString("\n\n")
		b.WriteString(cat.Rules)
	}

	b.WriteString("\n\nIf the image is not of jewelry, a watch, precious metals, or luxury goods, set item_type to \"other\", offer_low and offer_high to 0, and explain in description what you see instead.")

	return b.String()
}

// pricingPrompt assembles the per-request instruction text: multi-photo
// guidance, the jewelry pricing rules with every melt placeholder replaced by
// the day's computed values, a worked example at the current 14K rate, and
// the corrections section when present.
func pricingPrompt(req Request, sp pricing.SpotPrice, table pricing.MeltTable) string {
	var b strings.Builder

	if n := len(req.Images); n > 1 {
		fmt.Fprintf(&b, `You have been provided %d photos of the same item from different angles. Use ALL photos together to make the most accurate assessment possible. Look for:
- Hallmarks, stamps, or karat markings in close-up shots
- Brand logos, serial numbers, or maker's marks
- Overall condition from multiple angles
- Weight clues from thickness, size relative to known objects
- Clasp type, chain construction, setting quality

`, n)
	}

	for _, cat := range Categories() {
		if cat.PricedRules == "" {
			continue
		}
		b.WriteString(substitute(cat.PricedRules, sp, table))
		b.WriteString("\n\n")
	}

	b.WriteString(workedExample(table))

	if c := strings.TrimSpace(req.Corrections); c != "" {
		b.WriteString("\n\nIMPORTANT: The user has corrected the following details about this item. Treat these corrections as authoritative and use them to provide a more accurate assessment and updated offer range:\n")
		b.WriteString(c)
	}

	return b.String()
}

// workedExample renders the 14K chain example at today's per-gram rate so the
// model sees the arithmetic done with live numbers.
func workedExample(table pricing.MeltTable) string {
	perGram := table[pricing.Gold14K]
	if !usable(perGram) {
		return fmt.Sprintf(`WORKED EXAMPLE:
- Item: 14K gold chain, estimated 35-50g
- Low melt: 35 × the 14K per-gram value (%s)
- High melt: 50 × the 14K per-gram value (%s)
- Offer: melt floor, no premium needed for a generic chain`, missingValueSentinel, missingValueSentinel)
	}
	// The low bound truncates, the high bound rounds: the example's floor
	// should never overstate the minimum the formula produces.
	low := math.Floor(35 * perGram)
	high := math.Round(50 * perGram)
	return fmt.Sprintf(`WORKED EXAMPLE (at today's 14K rate of %s/gram):
- Item: 14K gold chain, estimated 35-50g
- Low melt: 35 × %s = %s
- High melt: 50 × %s = %s
- Offer: %s - %s (melt floor, no premium needed for a generic chain)
- WITH premium (branded/collectible): higher`,
		model.FormatUSD(perGram),
		model.FormatUSD(perGram), model.FormatUSD(low),
		model.FormatUSD(perGram), model.FormatUSD(high),
		model.FormatUSD(low), model.FormatUSD(high))
}

// substitute replaces every occurrence of every melt placeholder. A zero or
// non-finite value substitutes a sentinel instead of failing composition.
func substitute(text string, sp pricing.SpotPrice, table pricing.MeltTable) string {
	repl := map[string]float64{
		phGoldSpot:       sp.Gold,
		phSilverSpot:     sp.Silver,
		phGold10K:        table[pricing.Gold10K],
		phGold14K:        table[pricing.Gold14K],
		phGold18K:        table[pricing.Gold18K],
		phGold24K:        table[pricing.Gold24K],
		phSilverSterling: table[pricing.SterlingSilver],
		phSilverFine:     table[pricing.FineSilver],
	}
	for ph, v := range repl {
		formatted := missingValueSentinel
		if usable(v) {
			formatted = model.FormatUSD(v)
		}
		text = strings.ReplaceAll(text, ph, formatted)
	}
	return text
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Compose builds the outbound prompt payload for an appraisal request. The
// melt table is recomputed from the spot price on every call. Content
// ordering is part of the model contract: all image blocks first, in capture
// order, then a single text block.
func Compose(req Request, sp pricing.SpotPrice) (Payload, error) {
	if len(req.Images) == 0 {
		return Payload{}, eris.New("compose: at least one image is required")
	}

	table := pricing.Table(sp)

	blocks := make([]anthropic.Block, 0, len(req.Images)+1)
	for _, img := range req.Images {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		blocks = append(blocks, anthropic.ImageBlock(mediaType, img.Data))
	}
	blocks = append(blocks, anthropic.TextBlock(pricingPrompt(req, sp, table)))

	return Payload{
		System:     systemPrompt(),
		UserBlocks: blocks,
	}, nil
}
