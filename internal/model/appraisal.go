package model

import (
	"fmt"
	"sort"
	"strings"
)

// ItemType classifies what the model decided the photographed item is.
type ItemType string

const (
	ItemWatch      ItemType = "watch"
	ItemRing       ItemType = "ring"
	ItemNecklace   ItemType = "necklace"
	ItemBracelet   ItemType = "bracelet"
	ItemEarrings   ItemType = "earrings"
	ItemCoin       ItemType = "coin"
	ItemBar        ItemType = "bar"
	ItemHandbag    ItemType = "handbag"
	ItemWallet     ItemType = "wallet"
	ItemBelt       ItemType = "belt"
	ItemShoes      ItemType = "shoes"
	ItemSunglasses ItemType = "sunglasses"
	ItemAccessory  ItemType = "accessory"
	ItemOther      ItemType = "other"
)

// validItemTypes is the closed set the model may return.
var validItemTypes = map[ItemType]bool{
	ItemWatch: true, ItemRing: true, ItemNecklace: true, ItemBracelet: true,
	ItemEarrings: true, ItemCoin: true, ItemBar: true, ItemHandbag: true,
	ItemWallet: true, ItemBelt: true, ItemShoes: true, ItemSunglasses: true,
	ItemAccessory: true, ItemOther: true,
}

// Valid reports whether t is in the closed item type set.
func (t ItemType) Valid() bool {
	return validItemTypes[t]
}

// Confidence is the model's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Detail is a single labelled attribute of the appraised item. The label set
// depends on the item category (watch vs. jewelry vs. luxury goods), and order
// is meaningful for display.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Appraisal is the structured result of analyzing item images.
type Appraisal struct {
	ItemType    ItemType   `json:"item_type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Confidence  Confidence `json:"confidence"`
	Details     []Detail   `json:"details"`
	OfferLow    int        `json:"offer_low"`
	OfferHigh   int        `json:"offer_high"`
	OfferNotes  string     `json:"offer_notes"`
}

// Recognized reports whether the model considered the item a sellable item.
// Both offers at zero is the model's signal for "not something we buy".
func (a *Appraisal) Recognized() bool {
	return a.OfferLow > 0 || a.OfferHigh > 0
}

// Detail returns the value for a detail label, or "" if absent.
func (a *Appraisal) Detail(label string) string {
	for _, d := range a.Details {
		if d.Label == label {
			return d.Value
		}
	}
	return ""
}

// OfferRange formats the offer as a display string, e.g. "$3,300 – $4,700".
// Returns "" for unrecognized items.
func (a *Appraisal) OfferRange() string {
	if !a.Recognized() {
		return ""
	}
	return fmt.Sprintf("%s – %s", FormatUSD(float64(a.OfferLow)), FormatUSD(float64(a.OfferHigh)))
}

// CorrectionSet holds user overrides of appraisal detail fields, keyed by
// detail label, plus free-text notes. Entries exist only where the user's
// value differs from the original AI value.
type CorrectionSet struct {
	Fields     map[string]string `json:"fields,omitempty"`
	ExtraNotes string            `json:"extra_notes,omitempty"`
}

// NewCorrectionSet returns an empty correction set.
func NewCorrectionSet() *CorrectionSet {
	return &CorrectionSet{Fields: make(map[string]string)}
}

// Empty reports whether there are no field overrides and no notes.
func (c *CorrectionSet) Empty() bool {
	return len(c.Fields) == 0 && strings.TrimSpace(c.ExtraNotes) == ""
}

// Serialize renders the corrections as newline-delimited "label: value" lines
// in stable label order, followed by the extra notes if any. The result is
// appended verbatim to the re-estimation prompt.
func (c *CorrectionSet) Serialize() string {
	labels := make([]string, 0, len(c.Fields))
	for l := range c.Fields {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, l := range labels {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", l, c.Fields[l])
	}
	if notes := strings.TrimSpace(c.ExtraNotes); notes != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Additional info: %s", notes)
	}
	return b.String()
}

// Clone returns a deep copy, used when snapshotting correction history.
func (c *CorrectionSet) Clone() *CorrectionSet {
	out := &CorrectionSet{
		Fields:     make(map[string]string, len(c.Fields)),
		ExtraNotes: c.ExtraNotes,
	}
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	return out
}
