package notion

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

func TestRowToProperties(t *testing.T) {
	r := ledger.Row{
		ID: "row-1",
		Transaction: domain.Transaction{
			Date:     civil.Date{Year: 2024, Month: 2, Day: 29},
			Merchant: "Trader Joe's",
			Amount:   decimal.RequireFromString("23.45"),
			Type:     domain.TypeDebit,
		},
	}

	props := RowToProperties(r, 42)

	title, ok := props[propMerchant].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "Trader Joe's" {
		t.Errorf("Merchant = %+v", props[propMerchant])
	}
	if n := props[propAmount].(notionapi.NumberProperty).Number; n != 23.45 {
		t.Errorf("Amount = %v", n)
	}
	if n := props[propSeq].(notionapi.NumberProperty).Number; n != 42 {
		t.Errorf("Seq = %v", n)
	}
	if _, ok := props[propCategory]; ok {
		t.Error("empty category should not be set")
	}
	if _, ok := props[propBank]; ok {
		t.Error("empty bank should not be set")
	}
}

func TestRowFromPage_MissingDate(t *testing.T) {
	page := notionapi.Page{
		ID: "p1",
		Properties: notionapi.Properties{
			propAmount: &notionapi.NumberProperty{Number: 1},
		},
	}
	if _, err := RowFromPage(page); err == nil {
		t.Error("expected error for page without date")
	}
}

func TestRowFromPage_FallsBackToPageID(t *testing.T) {
	props := asResponse(RowToProperties(ledger.Row{
		Transaction: domain.Transaction{
			Date:     civil.Date{Year: 2024, Month: 1, Day: 3},
			Merchant: "Added by hand",
			Amount:   decimal.NewFromInt(9),
		},
	}, 1))
	delete(props, propRowID)

	r, err := RowFromPage(notionapi.Page{ID: "page-xyz", Properties: props})
	if err != nil {
		t.Fatalf("RowFromPage: %v", err)
	}
	if r.ID != "page-xyz" || r.Description != "Added by hand" {
		t.Errorf("unexpected row: %+v", r)
	}
}
