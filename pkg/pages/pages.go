// Package pages derives the pages.jsonl listing from classified capture
// records: a header line declaring the listing format, then one JSON object
// per page.
package pages

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/warcpack/pkg/warc"
)

// Format identifies the pages listing format in the header line and in the
// package manifest.
const Format = "json-pages-1.0"

type header struct {
	Format string `json:"format"`
	ID     string `json:"id"`
	Title  string `json:"title"`
}

// Record is one page line. Title is omitted when absent rather than
// serialized as null.
type Record struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Timestamp string `json:"ts"`
	Title     string `json:"title,omitempty"`
}

// Eligible reports whether a record represents a renderable page: a
// successful HTTP capture of a document type. The status check excludes
// error pages that happen to carry HTML bodies (a 404 page is a real
// document, but not what a page list consumer expects); the container
// format itself does not define "page", so this is a documented heuristic.
func Eligible(rec *warc.ClassifiedRecord) bool {
	switch rec.Kind {
	case warc.KindResponse, warc.KindRevisit, warc.KindResource:
	default:
		return false
	}
	if rec.Status != 200 {
		return false
	}
	switch rec.MIME {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// Selector accumulates page records during the single pass over a capture.
type Selector struct {
	records []Record
}

func NewSelector() *Selector {
	return &Selector{}
}

// Add emits a page record for an eligible record and reports whether one
// was emitted.
func (s *Selector) Add(rec *warc.ClassifiedRecord) bool {
	if !Eligible(rec) {
		return false
	}
	s.records = append(s.records, Record{
		ID:        pageID(rec, len(s.records)),
		URL:       rec.URL,
		Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
	})
	return true
}

// pageID derives a ksuid from the record plus its position in the listing.
// Ids only need to be collision-resistant within one archive, and deriving
// them from the record keeps repeated runs over the same capture
// byte-identical.
func pageID(rec *warc.ClassifiedRecord, n int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", rec.URL, rec.Timestamp.UnixNano(), n)))
	id, _ := ksuid.FromParts(rec.Timestamp, sum[:16])
	return id.String()
}

// Records returns the accumulated page records in encounter order.
func (s *Selector) Records() []Record {
	return s.records
}

// Finish serializes the listing: the header line, then every record, each
// line newline-terminated including the last. An empty capture yields the
// header line alone.
func (s *Selector) Finish() ([]byte, error) {
	var buf bytes.Buffer
	head, err := json.Marshal(header{Format: Format, ID: "pages", Title: "All Pages"})
	if err != nil {
		return nil, fmt.Errorf("serialize pages header: %w", err)
	}
	buf.Write(head)
	buf.WriteByte('\n')
	for _, rec := range s.records {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("serialize page record %q: %w", rec.URL, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
