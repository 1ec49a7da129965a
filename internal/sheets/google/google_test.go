package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tempo/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SPREADSHEET_ID")
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")

	_, err := newSheetsService(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestNewWithService_DefaultSheetName(t *testing.T) {
	c := NewWithService(nil, "sid", "")
	assert.Equal(t, DefaultSheetName, c.sheetName)

	_, err := c.Export(context.Background(), nil)
	assert.Error(t, err)
}

func TestToValues(t *testing.T) {
	values := toValues([]core.ActivityRecord{
		{ID: 1, Date: core.NewDate(2024, 1, 1), Activity: "Gym", DurationMinutes: 60},
		{ID: 2, Date: core.NewDate(2024, 1, 2), Activity: "Reading", DurationMinutes: 30, Notes: "novel"},
	})

	assert.Equal(t, [][]any{
		{"Date", "Activity", "Duration (min)", "Notes"},
		{"2024-01-02", "Reading", 30, "novel"},
		{"2024-01-01", "Gym", 60, ""},
	}, values)
}

// fakeSheets records clear and update calls made through the real API client.
type fakeSheets struct {
	mu      sync.Mutex
	cleared []string
	written [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.cleared = append(f.cleared, r.URL.Path)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.written = vr.Values
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid","updatedRange":"Activities!A1:D3","updatedRows":3}`))
	default:
		http.NotFound(w, r)
	}
}

func TestExport(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c := NewWithService(svc, "sid", "Activities")
	ref, err := c.Export(ctx, []core.ActivityRecord{
		{ID: 1, Date: core.NewDate(2024, 1, 1), Activity: "Gym", DurationMinutes: 60},
		{ID: 2, Date: core.NewDate(2024, 1, 2), Activity: "Reading", DurationMinutes: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, "Activities!A1:D3", ref)

	require.Len(t, fake.cleared, 1)
	assert.Contains(t, fake.cleared[0], "Activities!A:D")
	require.Len(t, fake.written, 3)
	assert.Equal(t, []any{"2024-01-02", "Reading", float64(30), ""}, fake.written[1])
}
