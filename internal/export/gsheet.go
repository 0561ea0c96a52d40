package export

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/table"
)

// GSheetExporter mirrors the lesson results table into a Google Sheet tab.
type GSheetExporter struct {
	config        app.GSheetConfig
	sheetsService *sheets.Service
	now           func() time.Time
}

func NewGSheetExporter(ctx context.Context, cfg app.GSheetConfig) (*GSheetExporter, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("gsheet export needs sheet_id and credentials_path")
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &GSheetExporter{
		config:        cfg,
		sheetsService: svc,
		now:           time.Now,
	}, nil
}

// Export replaces the sheet contents with the table, header first.
func (e *GSheetExporter) Export(ctx context.Context, t *table.Table) error {
	sheetRange := e.config.SheetName

	_, err := e.sheetsService.Spreadsheets.Values.Clear(e.config.SheetID, sheetRange,
		&sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", sheetRange, err)
	}

	_, err = e.sheetsService.Spreadsheets.Values.Update(e.config.SheetID, sheetRange,
		toValueRange(t.Records())).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", sheetRange, err)
	}
	logger.Info.Printf("Uploaded %d rows to sheet %s", t.Len(), sheetRange)

	if e.config.TimestampRange == "" {
		return nil
	}

	stamp := fmt.Sprintf("UPD: %s", e.now().Format("2 January 15:04"))
	updateRange := fmt.Sprintf("%s!%s", e.config.SheetName, e.config.TimestampRange)
	_, err = e.sheetsService.Spreadsheets.Values.Update(e.config.SheetID, updateRange,
		&sheets.ValueRange{Values: [][]interface{}{{stamp}}}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to stamp %s: %w", updateRange, err)
	}
	return nil
}

// toValueRange keeps numeric cells numeric so the sheet can chart them.
func toValueRange(records [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(rec))
		for j, cell := range rec {
			if v, ok, err := table.ParseFloat(cell); err == nil && ok && i > 0 {
				row[j] = v
				continue
			}
			row[j] = cell
		}
		values[i] = row
	}
	return &sheets.ValueRange{Values: values}
}
