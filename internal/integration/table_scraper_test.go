package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterLevelHTML = `
<!DOCTYPE html>
<html>
<head><title>Water Level</title></head>
<body>
  <table>
    <tr><th>SL</th><th>Station</th><th>Danger Level</th><th>Yesterday</th><th>Today</th></tr>
    <tr><td>1</td><td> Sylhet </td><td>11.25</td><td>10.80</td><td>10.95</td></tr>
    <tr><td>2</td><td>Sunamganj</td><td>8.25</td></tr>
    <tr><td>3</td><td>Chattak</td><td>9.75</td><td>--</td><td>9.1*</td></tr>
  </table>
  <table><tr><td>footer</td></tr><tr><td>ignored</td></tr></table>
</body>
</html>`

// mockHTMLServer creates a test server that serves a fixed HTML response
func mockHTMLServer(status int, html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		io.WriteString(w, html)
	}))
}

func TestFetchTable(t *testing.T) {
	server := mockHTMLServer(http.StatusOK, waterLevelHTML)
	defer server.Close()

	rows, err := NewTableScraper(5*time.Second).FetchTable(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"1", "Sylhet", "11.25", "10.80", "10.95"},
		{"2", "Sunamganj", "8.25"},
		{"3", "Chattak", "9.75", "--", "9.1*"},
	}, rows)
}

func TestFetchTable_NonSuccessStatus(t *testing.T) {
	server := mockHTMLServer(http.StatusServiceUnavailable, waterLevelHTML)
	defer server.Close()

	rows, err := NewTableScraper(5*time.Second).FetchTable(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Nil(t, rows)
}

func TestFetchTable_NoTable(t *testing.T) {
	server := mockHTMLServer(http.StatusOK, `<html><body><p>maintenance</p></body></html>`)
	defer server.Close()

	rows, err := NewTableScraper(5*time.Second).FetchTable(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrNoTable)
	assert.Nil(t, rows)
}

func TestFetchTable_NetworkError(t *testing.T) {
	server := mockHTMLServer(http.StatusOK, waterLevelHTML)
	url := server.URL
	server.Close()

	_, err := NewTableScraper(time.Second).FetchTable(context.Background(), url)
	require.ErrorIs(t, err, ErrFetch)
}

func TestFetchTable_CancelledContext(t *testing.T) {
	server := mockHTMLServer(http.StatusOK, waterLevelHTML)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTableScraper(time.Second).FetchTable(ctx, server.URL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestParseTable_HeaderOnly(t *testing.T) {
	rows, err := ParseTable(strings.NewReader(`<table><tr><th>Station</th></tr></table>`))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseTable_NestedTableRowsIgnored(t *testing.T) {
	html := `<table>
	<tr><th>h</th></tr>
	<tr><td>a</td><td><table><tr><td>x</td></tr><tr><td>y</td></tr></table></td></tr>
	</table>`

	rows, err := ParseTable(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "xy"}, rows[0])
}
