package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// AuthError is any failure between reading the service-account credentials
// and holding an opened worksheet.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sheets auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ParameterGetter resolves a secret by name (see config.ParameterStore).
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string, decrypt bool) (string, error)
}

// Credentials returns the service-account JSON, from SSM when parameter is
// set and from the file at path otherwise.
func Credentials(ctx context.Context, path, parameter string, store ParameterGetter) ([]byte, error) {
	if parameter != "" {
		if store == nil {
			return nil, &AuthError{Op: "read credentials", Err: fmt.Errorf("no parameter store for %s", parameter)}
		}
		v, err := store.GetParameter(ctx, parameter, true)
		if err != nil {
			return nil, &AuthError{Op: "read credentials", Err: err}
		}
		return []byte(v), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &AuthError{Op: "read credentials", Err: err}
	}
	return b, nil
}

// GoogleWorksheet is the first tab of a Google spreadsheet.
type GoogleWorksheet struct {
	srv           *gsheets.Service
	spreadsheetID string
	title         string
}

// Open authorizes with the service-account credentials and opens the first
// worksheet of the spreadsheet identified by id, or found by name in Drive
// when id is empty.
func Open(ctx context.Context, credentials []byte, id, name string) (*GoogleWorksheet, error) {
	return OpenWithOptions(ctx, id, name,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveReadonlyScope),
	)
}

// OpenWithOptions is Open with explicit client options for both APIs.
func OpenWithOptions(ctx context.Context, id, name string, opts ...option.ClientOption) (*GoogleWorksheet, error) {
	if id == "" {
		found, err := findSpreadsheet(ctx, name, opts...)
		if err != nil {
			return nil, err
		}
		id = found
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &AuthError{Op: "create sheets client", Err: err}
	}

	ss, err := srv.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, &AuthError{Op: "open spreadsheet " + id, Err: err}
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, &AuthError{Op: "open spreadsheet " + id, Err: fmt.Errorf("spreadsheet has no worksheets")}
	}

	return &GoogleWorksheet{
		srv:           srv,
		spreadsheetID: id,
		title:         ss.Sheets[0].Properties.Title,
	}, nil
}

func findSpreadsheet(ctx context.Context, name string, opts ...option.ClientOption) (string, error) {
	driveSrv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", &AuthError{Op: "create drive client", Err: err}
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	list, err := driveSrv.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", &AuthError{Op: "find spreadsheet " + name, Err: err}
	}
	if len(list.Files) == 0 {
		return "", &AuthError{Op: "find spreadsheet " + name, Err: fmt.Errorf("not found or not shared with the service account")}
	}
	return list.Files[0].Id, nil
}

func (g *GoogleWorksheet) ID() string    { return g.spreadsheetID }
func (g *GoogleWorksheet) Title() string { return g.title }

// sheetRange addresses the whole tab, e.g. 'Crypto Data'.
func (g *GoogleWorksheet) sheetRange() string {
	return "'" + strings.ReplaceAll(g.title, "'", "''") + "'"
}

func (g *GoogleWorksheet) Clear(ctx context.Context) error {
	_, err := g.srv.Spreadsheets.Values.
		Clear(g.spreadsheetID, g.sheetRange(), &gsheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

func (g *GoogleWorksheet) AppendRows(ctx context.Context, rows [][]any) error {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	_, err := g.srv.Spreadsheets.Values.
		Append(g.spreadsheetID, g.sheetRange(), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
