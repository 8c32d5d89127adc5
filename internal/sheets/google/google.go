package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetab/internal/log"
	ports "expensetab/internal/sheets"
)

// lastColumn bounds reads and clears; exports use far fewer columns.
const lastColumn = "Z"

var ErrNotInitialized = errors.New("sheets service not initialized")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.Sheet = (*Client)(nil)

// Config selects the spreadsheet and how to authenticate. CredentialsFile
// is a service account key; extra options are passed to the API client.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	Options         []goption.ClientOption
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, cfg.Options...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger,
	}, nil
}

func (c *Client) fullRange() string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(c.sheetName), lastColumn)
}

// WriteRows clears the sheet and writes rows from A1. Values are written
// RAW so dates and amounts keep their exported text.
func (c *Client) WriteRows(ctx context.Context, rows [][]string) (string, error) {
	if c.svc == nil {
		return "", ErrNotInitialized
	}

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.fullRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}
	if len(rows) == 0 {
		return c.fullRange(), nil
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	rng := fmt.Sprintf("%s!A1:%s%d", quoteSheet(c.sheetName), columnLetter(width), len(rows))
	vr := &gsheet.ValueRange{Values: toValues(rows)}

	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Rows written to sheet",
		log.FieldSheetsRef, resp.UpdatedRange,
		log.FieldRowCount, len(rows))
	return resp.UpdatedRange, nil
}

// ReadRows returns the formatted values of the sheet.
func (c *Client) ReadRows(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, ErrNotInitialized
	}
	rng := c.fullRange()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := toRows(resp.Values)
	c.logger.DebugContext(ctx, "Rows read from sheet", log.FieldRowCount, len(rows))
	return rows, nil
}
