package lead

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/pkg/notion"
)

// NotionSink creates one page per lead in the intake database. The operations
// team works leads out of Notion, so this is the sink that matters most
// day-to-day.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a Notion sink targeting the given database.
func NewNotionSink(client notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Deliver(ctx context.Context, lead model.Lead) error {
	p := lead.Payload

	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{
			Title: richText(strings.TrimSpace(p.FirstName + " " + p.LastName)),
		},
		"Email": &notionapi.EmailProperty{Email: p.Email},
		"Item": &notionapi.RichTextProperty{
			RichText: richText(p.Item),
		},
		"Offer Range": &notionapi.RichTextProperty{
			RichText: richText(p.OfferRange),
		},
		"Item Type": &notionapi.SelectProperty{
			Select: notionapi.Option{Name: orDefault(p.ItemType, "other")},
		},
		"Confidence": &notionapi.SelectProperty{
			Select: notionapi.Option{Name: orDefault(p.Confidence, "low")},
		},
	}
	if p.Phone != "" {
		props["Phone"] = &notionapi.PhoneNumberProperty{PhoneNumber: p.Phone}
	}
	if p.Source != "" {
		props["Source"] = &notionapi.SelectProperty{
			Select: notionapi.Option{Name: p.Source},
		}
	}
	if notes := intakeNotes(p); notes != "" {
		props["Notes"] = &notionapi.RichTextProperty{
			RichText: richText(notes),
		}
	}

	_, err := s.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: props,
	})
	if err != nil {
		return eris.Wrap(err, "notion sink: create lead page")
	}
	return nil
}

// intakeNotes flattens everything the operations side reads as free text:
// the item description, per-field details, correction history, shipping
// preference, and the visitor's own notes.
func intakeNotes(p model.LeadPayload) string {
	var b strings.Builder

	if p.Description != "" {
		b.WriteString(p.Description)
	}
	for _, d := range p.Details {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Label)
		b.WriteString(": ")
		b.WriteString(d.Value)
	}
	if p.OfferNotes != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Offer notes: ")
		b.WriteString(p.OfferNotes)
	}
	for i := range p.Corrections {
		if serialized := p.Corrections[i].Serialize(); serialized != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("Customer corrections:\n")
			b.WriteString(serialized)
		}
	}
	if p.ShippingMethod != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Shipping: ")
		b.WriteString(p.ShippingMethod)
		if p.Address != "" {
			b.WriteString(", ")
			b.WriteString(p.Address)
		}
	}
	if p.Notes != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Customer notes: ")
		b.WriteString(p.Notes)
	}
	return b.String()
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: s}},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
