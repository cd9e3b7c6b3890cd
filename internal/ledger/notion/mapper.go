package notion

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// Database property names.
const (
	propMerchant = "Merchant"
	propDate     = "Date"
	propAmount   = "Amount"
	propCategory = "Category"
	propType     = "Type"
	propBank     = "Bank"
	propAccount  = "Account"
	propNotes    = "Notes"
	propSource   = "Source"
	propRowID    = "Row ID"
	propSeq      = "Seq"
)

// requiredProperties must exist in the database for rows to round-trip.
var requiredProperties = []string{
	propMerchant, propDate, propAmount, propCategory, propType,
	propBank, propAccount, propNotes, propSource, propRowID, propSeq,
}

func richText(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{
					Content: content,
				},
			},
		},
	}
}

// RowToProperties converts a ledger row to page properties. seq orders
// rows in append order.
func RowToProperties(r ledger.Row, seq int64) notionapi.Properties {
	date := notionapi.Date(time.Date(r.Date.Year, r.Date.Month, r.Date.Day, 0, 0, 0, 0, time.UTC))

	props := notionapi.Properties{
		propMerchant: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: r.Merchant,
					},
				},
			},
		},
		propDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &date,
			},
		},
		propAmount: notionapi.NumberProperty{
			Number: r.Amount.InexactFloat64(),
		},
		propRowID: richText(r.ID),
		propSeq: notionapi.NumberProperty{
			Number: float64(seq),
		},
	}

	// Select options cannot be empty.
	if r.Category != "" {
		props[propCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: r.Category,
			},
		}
	}
	if r.Type != "" {
		props[propType] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(r.Type),
			},
		}
	}

	if r.Bank != "" {
		props[propBank] = richText(r.Bank)
	}
	if r.Account != "" {
		props[propAccount] = richText(r.Account)
	}
	if r.Notes != "" {
		props[propNotes] = richText(r.Notes)
	}
	if r.SourceID != "" {
		props[propSource] = richText(r.SourceID)
	}

	return props
}

// RowFromPage reads a ledger row back from a database page.
func RowFromPage(page notionapi.Page) (ledger.Row, error) {
	dateProp, ok := page.Properties[propDate].(*notionapi.DateProperty)
	if !ok || dateProp.Date == nil || dateProp.Date.Start == nil {
		return ledger.Row{}, fmt.Errorf("page %s: missing %s", page.ID, propDate)
	}
	amountProp, ok := page.Properties[propAmount].(*notionapi.NumberProperty)
	if !ok {
		return ledger.Row{}, fmt.Errorf("page %s: missing %s", page.ID, propAmount)
	}

	r := ledger.Row{
		ID: textOf(page.Properties[propRowID]),
		Transaction: domain.Transaction{
			Date:     civil.DateOf(time.Time(*dateProp.Date.Start)),
			Merchant: textOf(page.Properties[propMerchant]),
			Amount:   decimal.NewFromFloat(amountProp.Number),
			Category: selectOf(page.Properties[propCategory]),
			Type:     domain.ParseTransactionType(selectOf(page.Properties[propType])),
			SourceID: textOf(page.Properties[propSource]),
		},
		Bank:    textOf(page.Properties[propBank]),
		Account: textOf(page.Properties[propAccount]),
		Notes:   textOf(page.Properties[propNotes]),
	}
	if r.ID == "" {
		r.ID = string(page.ID)
	}
	r.Description = r.Notes
	if r.Description == "" {
		r.Description = r.Merchant
	}
	return r, nil
}

func textOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	}
	return ""
}

func plainText(parts []notionapi.RichText) string {
	var s string
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			s += rt.PlainText
		case rt.Text != nil:
			s += rt.Text.Content
		}
	}
	return s
}

func selectOf(p notionapi.Property) string {
	if v, ok := p.(*notionapi.SelectProperty); ok {
		return v.Select.Name
	}
	return ""
}
