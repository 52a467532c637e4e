// Package export mirrors ledger transactions to a Google Sheets spreadsheet.
// The spreadsheet is an append-only journal for people who live in their
// sheet; the SQLite database stays the source of truth.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finapp/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Row is one exported transaction with its references resolved to display
// names at export time.
type Row struct {
	Transaction core.Transaction
	Category    string
	Account     string
	Card        string
}

// Appender is the spreadsheet side of the export worker.
type Appender interface {
	Append(ctx context.Context, r Row) error
}

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Appender = (*SheetsExporter)(nil)

// NewSheetsExporter builds a client from service account credentials in the
// environment: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsExporter(ctx context.Context, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// Append adds one journal line: date, kind, description, amount (signed,
// decimal), category, account, card.
func (e *SheetsExporter) Append(ctx context.Context, r Row) error {
	t := r.Transaction
	values := &gsheet.ValueRange{Values: [][]any{{
		t.Date.String(),
		string(t.Kind),
		t.Description,
		t.Signed().Reais(),
		r.Category,
		r.Account,
		r.Card,
	}}}

	rng := fmt.Sprintf("%s!A:G", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}
	return nil
}
