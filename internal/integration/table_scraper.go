// Package integration handles external service interactions
package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/abelzeko/floodcast/internal/log"
)

// Fetch failures. Any of these aborts an ingestion run.
var (
	ErrFetch            = errors.New("failed to fetch the webpage")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrParse            = errors.New("failed to parse the webpage")
	ErrNoTable          = errors.New("no table found on the webpage")
)

// TableFetcher returns the data rows of the first HTML table at a URL
type TableFetcher interface {
	FetchTable(ctx context.Context, url string) ([][]string, error)
}

// TableScraper fetches HTML pages and extracts their first table
type TableScraper struct {
	client *http.Client
}

// NewTableScraper creates a new scraper with the given request timeout
func NewTableScraper(timeout time.Duration) *TableScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TableScraper{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchTable retrieves url and returns the rows of its first table.
// The header row is dropped and every row is the trimmed text of its td cells.
// Nothing is returned on failure.
func (ts *TableScraper) FetchTable(ctx context.Context, url string) ([][]string, error) {
	log.Infof("Sending HTTP request to %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	res, err := ts.client.Do(req)
	if err != nil {
		log.Errorf("Error fetching data: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		log.Errorf("Received unexpected status code: %d %s", res.StatusCode, res.Status)
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, res.StatusCode, res.Status)
	}
	log.Debugf("Successfully received HTTP response with status: %s", res.Status)

	rows, err := ParseTable(res.Body)
	if err != nil {
		return nil, err
	}
	log.Infof("Parsed %d table rows from %s", len(rows), url)
	return rows, nil
}

// ParseTable extracts the rows of the first table in an HTML document
func ParseTable(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		log.Errorf("Error parsing HTML: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		log.Errorf("No table found on the webpage")
		return nil, ErrNoTable
	}

	rows := [][]string{}
	table.Find("tr").Each(func(index int, row *goquery.Selection) {
		// The first row carries the column titles
		if index == 0 {
			return
		}
		// Skip rows of nested tables
		if row.Closest("table").Get(0) != table.Get(0) {
			return
		}
		cells := row.ChildrenFiltered("td")
		values := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			values = append(values, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, values)
	})

	return rows, nil
}
