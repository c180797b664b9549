package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/roster"
)

const (
	defaultTimeout = 20 * time.Second
	defaultMaxBody = 10 << 20
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client downloads spreadsheets through their public CSV export.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
	logger     core.Logger
}

var _ roster.Fetcher = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *Client {
	timeout := conf.Sheets.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := conf.Sheets.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Client{
		baseURL:    strings.TrimRight(conf.Sheets.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBody,
		logger:     logger,
	}
}

// URL returns the CSV export URL of the first sheet of sourceID.
func (c *Client) URL(sourceID string) string {
	return fmt.Sprintf("%s/%s/export?format=csv&gid=0", c.baseURL, url.PathEscape(sourceID))
}

// FetchTable downloads and parses one source. Failures are returned as *roster.FetchError.
func (c *Client) FetchTable(ctx context.Context, sourceID, label string) (roster.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(sourceID), nil)
	if err != nil {
		return roster.Table{}, &roster.FetchError{Kind: roster.FetchFailed, Label: label, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return roster.Table{}, &roster.FetchError{Kind: roster.ConnectionBlocked, Label: label, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return roster.Table{}, &roster.FetchError{Kind: roster.ConnectionBlocked, Label: label, Detail: err.Error(), Err: err}
	}

	// login pages are served with any status, including 200
	if isHTML(body) {
		return roster.Table{}, &roster.FetchError{Kind: roster.AuthRequired, Label: label, Status: resp.StatusCode}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return roster.Table{}, &roster.FetchError{Kind: roster.AccessDenied, Label: label, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return roster.Table{}, &roster.FetchError{Kind: roster.FetchFailed, Label: label, Status: resp.StatusCode}
	}
	if int64(len(body)) > c.maxBody {
		detail := fmt.Sprintf("response exceeds %d bytes", c.maxBody)
		return roster.Table{}, &roster.FetchError{Kind: roster.ParseError, Label: label, Detail: detail}
	}

	tbl, err := ParseCSV(body)
	tbl.Label = label
	if err != nil {
		return roster.Table{}, &roster.FetchError{Kind: roster.ParseError, Label: label, Detail: err.Error(), Err: err}
	}
	for _, issue := range tbl.Issues {
		c.logger.Warn(fmt.Sprintf("%s sheet: %s", label, issue))
	}
	return tbl, nil
}

func isHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(bytes.TrimPrefix(body, utf8BOM))))
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "google-signin")
}

// ParseCSV reads a CSV document with a header row. Blank rows are dropped. Rows with a wrong
// number of cells are padded or truncated and reported in Table.Issues. Quotes are read leniently.
// It only fails when there are issues and no usable row.
func ParseCSV(data []byte) (roster.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true // stray quotes stay in the cell

	var tbl roster.Table
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pErr *csv.ParseError
			if errors.As(err, &pErr) {
				tbl.Issues = append(tbl.Issues, pErr.Error())
				continue
			}
			return tbl, errors.Wrap(err, "reading csv")
		}

		if tbl.Header == nil {
			tbl.Header = make([]string, len(record))
			for i, h := range record {
				tbl.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		if isBlank(record) {
			continue
		}

		if len(record) != len(tbl.Header) {
			line, _ := r.FieldPos(0)
			tbl.Issues = append(tbl.Issues, fmt.Sprintf(
				"record on line %d: expected %d fields, got %d", line, len(tbl.Header), len(record),
			))
		}
		row := make(roster.Row, len(tbl.Header))
		for i, h := range tbl.Header {
			if _, dup := row[h]; h == "" || dup { // first of duplicate headers wins
				continue
			}
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	if len(tbl.Issues) > 0 && len(tbl.Rows) == 0 {
		return tbl, errors.New(tbl.Issues[0])
	}
	return tbl, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
