// Package google mirrors transactions into a Google Sheets worksheet, one
// row per transaction keyed by the transaction id in column F.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
)

// DefaultSheetName is the worksheet used when Config.SheetName is empty.
const DefaultSheetName = "Transactions"

// Header is the first row written to an empty worksheet.
var Header = []any{"Date", "Category", "Amount", "Currency", "Note", "ID"}

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	// Options are appended after the credentials. Tests point the client
	// at a fake endpoint with them.
	Options []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	mu      sync.Mutex
	sheetID *int64
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	opts, err := credentialOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, cfg.Options...)
	if len(opts) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets client ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheet)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        logger,
	}, nil
}

// credentialOptions prefers inline JSON over a key file. No credentials
// yields no options.
func credentialOptions(cfg Config) ([]goption.ClientOption, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, nil
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// SheetName returns the mirrored worksheet title.
func (c *Client) SheetName() string {
	return c.sheet
}

func (c *Client) rangeOf(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheet, cells)
}

// EnsureHeader writes Header into row 1 when the worksheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := c.rangeOf("A1:F1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", c.sheet, err)
	}
	c.logger.InfoContext(ctx, "Wrote sheet header", "sheet", c.sheet)
	return nil
}

// Rows returns every mirrored transaction row, skipping the header and
// blank or malformed rows.
func (c *Client) Rows(ctx context.Context) ([]Row, error) {
	values, err := c.readValues(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(values), nil
}

// UpsertTransaction replaces any row carrying tx.ID with a fresh row
// appended at the end of the sheet.
func (c *Client) UpsertTransaction(ctx context.Context, tx core.Transaction, category string) error {
	if strings.TrimSpace(tx.ID) == "" {
		return errors.New("transaction without id")
	}
	if err := c.DeleteTransaction(ctx, tx.ID); err != nil {
		return err
	}

	row := []any{tx.Date, category, tx.Amount, tx.Currency, tx.Note, tx.ID}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:F"), &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append transaction %s to %s: %w", tx.ID, c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Mirrored transaction",
		log.FieldEntityID, tx.ID,
		log.FieldAmount, tx.Amount,
		log.FieldCurrency, tx.Currency)
	return nil
}

// DeleteTransaction removes every row carrying id. A missing id is not an
// error.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	values, err := c.readValues(ctx)
	if err != nil {
		return err
	}
	indices := rowsWithID(values, id)
	if len(indices) == 0 {
		return nil
	}
	sheetID, err := c.worksheetID(ctx)
	if err != nil {
		return err
	}

	// Delete bottom-up so earlier indices stay valid.
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	requests := make([]*gsheet.Request, 0, len(indices))
	for _, i := range indices {
		requests = append(requests, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(i),
					EndIndex:        int64(i + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows of %s from %s: %w", id, c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Removed mirrored rows",
		log.FieldEntityID, id,
		"rows", len(indices))
	return nil
}

func (c *Client) readValues(ctx context.Context) ([][]any, error) {
	rng := c.rangeOf("A:F")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// worksheetID resolves and caches the numeric id of the mirrored sheet.
func (c *Client) worksheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", c.sheet, c.spreadsheetID)
}
