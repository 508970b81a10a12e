package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sheetsapi "agrosnab/internal/sheets"

	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// GoogleSheets implements sheets.API against the Sheets v4 REST API.
// Every remote call goes through the circuit breaker so an outage or a 429
// storm fast-fails instead of queueing operator commands behind timeouts.
type GoogleSheets struct {
	srv           *gsheets.Service
	spreadsheetID string
	cb            *SheetsBreaker
}

func NewGoogleSheets(ctx context.Context, spreadsheetID, credentialsFile string, cb *SheetsBreaker) (*GoogleSheets, error) {
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &GoogleSheets{srv: srv, spreadsheetID: spreadsheetID, cb: cb}, nil
}

func (g *GoogleSheets) SheetTitles(ctx context.Context) ([]string, error) {
	var titles []string
	err := g.cb.Do(func() error {
		resp, err := g.srv.Spreadsheets.Get(g.spreadsheetID).
			Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, s := range resp.Sheets {
			if s.Properties != nil {
				titles = append(titles, s.Properties.Title)
			}
		}
		return nil
	})
	return titles, err
}

func (g *GoogleSheets) AddSheet(ctx context.Context, title string) error {
	return g.cb.Do(func() error {
		_, err := g.srv.Spreadsheets.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{{
				AddSheet: &gsheets.AddSheetRequest{
					Properties: &gsheets.SheetProperties{Title: title},
				},
			}},
		}).Context(ctx).Do()
		return err
	})
}

func (g *GoogleSheets) GetRows(ctx context.Context, sheet string, startRow, endRow int) ([][]string, error) {
	rng := fmt.Sprintf("%s!%d:%d", sheet, startRow, endRow)
	if endRow <= 0 {
		rng = fmt.Sprintf("%s!A%d:ZZ", sheet, startRow)
	}

	var rows [][]string
	err := g.cb.Do(func() error {
		resp, err := g.srv.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = make([][]string, 0, len(resp.Values))
		for _, raw := range resp.Values {
			row := make([]string, len(raw))
			for i, cell := range raw {
				row[i] = fmt.Sprint(cell)
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

func (g *GoogleSheets) UpdateCells(ctx context.Context, sheet string, row, col int, values [][]interface{}) error {
	rng := fmt.Sprintf("%s!%s%d", sheet, sheetsapi.ColLetter(col-1), row)
	return g.cb.Do(func() error {
		_, err := g.srv.Spreadsheets.Values.Update(g.spreadsheetID, rng, &gsheets.ValueRange{
			Values: values,
		}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		return err
	})
}

func (g *GoogleSheets) BatchUpdateCells(ctx context.Context, sheet string, updates []sheetsapi.CellUpdate) error {
	data := make([]*gsheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &gsheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", sheet, sheetsapi.ColLetter(u.Col-1), u.Row),
			Values: [][]interface{}{{u.Value}},
		})
	}
	return g.cb.Do(func() error {
		_, err := g.srv.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		}).Context(ctx).Do()
		return err
	})
}

func (g *GoogleSheets) AppendRow(ctx context.Context, sheet string, row []interface{}) (int, error) {
	var rowNum int
	err := g.cb.Do(func() error {
		resp, err := g.srv.Spreadsheets.Values.Append(g.spreadsheetID, sheet+"!A:A", &gsheets.ValueRange{
			Values: [][]interface{}{row},
		}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return err
		}
		if resp.Updates != nil {
			rowNum = rowFromRange(resp.Updates.UpdatedRange)
		}
		return nil
	})
	return rowNum, err
}

// rowFromRange extracts the starting row from an A1 range like "Stock!A17:L17".
func rowFromRange(a1 string) int {
	parts := strings.SplitN(a1, "!", 2)
	if len(parts) != 2 {
		return 0
	}
	cell := strings.SplitN(parts[1], ":", 2)[0]
	digits := strings.TrimLeftFunc(cell, func(r rune) bool { return r < '0' || r > '9' })
	n, _ := strconv.Atoi(digits)
	return n
}
