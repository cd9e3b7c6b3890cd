// Package sheets stores the ledger in a Google Sheets tab.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const backendName = "sheets"

// Client is a ledger.Store over one tab of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ledger.Store = (*Client)(nil)

// New creates a Sheets ledger. Pass option.WithHTTPClient with an
// authorized client.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.Storage("sheets.New", fmt.Errorf("create sheets service: %w", err))
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// WithSpreadsheet returns a client for another spreadsheet sharing the
// same service.
func (c *Client) WithSpreadsheet(spreadsheetID string) *Client {
	if spreadsheetID == "" || spreadsheetID == c.spreadsheetID {
		return c
	}
	return &Client{svc: c.svc, spreadsheetID: spreadsheetID, sheetName: c.sheetName}
}

// SpreadsheetID returns the spreadsheet the client writes to.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// Initialize creates the ledger tab with a frozen header row when it is
// missing and rewrites the header if it differs.
func (c *Client) Initialize(ctx context.Context) (*ledger.Info, error) {
	log := logger.FromContext(ctx)

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.FromGoogle("sheets.Initialize", err)
	}

	created := false
	if !hasSheet(ss, c.sheetName) {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{
						Title:          c.sheetName,
						GridProperties: &gsheet.GridProperties{FrozenRowCount: 1},
					},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return nil, apperr.FromGoogle("sheets.Initialize", err)
		}
		created = true
		log.Info().Str("sheet", c.sheetName).Msg("Created ledger sheet")
	}

	headerRange := quoteSheet(c.sheetName) + "!A1:J1"
	current, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return nil, apperr.FromGoogle("sheets.Initialize", err)
	}
	if !headerMatches(current.Values) {
		header := make([]interface{}, len(ledger.Columns))
		for i, col := range ledger.Columns {
			header[i] = col
		}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange,
			&gsheet.ValueRange{Values: [][]interface{}{header}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return nil, apperr.FromGoogle("sheets.Initialize", err)
		}
		log.Debug().Str("sheet", c.sheetName).Msg("Wrote ledger header")
	}

	title := ""
	if ss.Properties != nil {
		title = ss.Properties.Title
	}
	return &ledger.Info{
		Backend:  backendName,
		Title:    title,
		Location: "https://docs.google.com/spreadsheets/d/" + c.spreadsheetID,
		Created:  created,
	}, nil
}

// Append adds rows after the last row of the table, in order.
func (c *Client) Append(ctx context.Context, rows []ledger.Row) (*ledger.AppendResult, error) {
	if len(rows) == 0 {
		return &ledger.AppendResult{}, nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, encodeRow(r))
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quoteSheet(c.sheetName)+"!A:J",
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.FromGoogle("sheets.Append", err)
	}

	res := &ledger.AppendResult{Appended: len(rows)}
	if resp.Updates != nil {
		res.Range = resp.Updates.UpdatedRange
		if resp.Updates.UpdatedRows > 0 {
			res.Appended = int(resp.Updates.UpdatedRows)
		}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("spreadsheet_id", c.spreadsheetID).
		Int("rows", res.Appended).
		Str("range", res.Range).
		Msg("Appended ledger rows")
	return res, nil
}

// Query reads every data row and applies the filter in memory.
// Rows that cannot be read, usually hand edits, are skipped with a warning.
func (c *Client) Query(ctx context.Context, f ledger.Filter) ([]ledger.Row, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheet(c.sheetName)+"!A2:J").
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.FromGoogle("sheets.Query", err)
	}

	log := logger.FromContext(ctx)
	rows := make([]ledger.Row, 0, len(resp.Values))
	var skipped []int
	for i, cells := range resp.Values {
		r, err := decodeRow(cells)
		if err != nil {
			log.Warn().Err(err).Int("row", i+2).Msg("Skipping unreadable ledger row")
			skipped = append(skipped, i+2)
			continue
		}
		rows = append(rows, r)
	}
	if len(skipped) > 0 {
		log.Warn().
			Str("spreadsheet_id", c.spreadsheetID).
			Ints("rows", skipped).
			Msg("Ledger rows left out of query results")
	}
	return f.Apply(rows), nil
}

func hasSheet(ss *gsheet.Spreadsheet, name string) bool {
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return true
		}
	}
	return false
}

func headerMatches(values [][]interface{}) bool {
	if len(values) == 0 || len(values[0]) != len(ledger.Columns) {
		return false
	}
	for i, col := range ledger.Columns {
		if !strings.EqualFold(strings.TrimSpace(fmt.Sprint(values[0][i])), col) {
			return false
		}
	}
	return true
}
