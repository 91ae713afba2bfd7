// Package cdxj accumulates index entries for classified capture records and
// serializes them as a CDXJ stream: one line per record, `<key> <timestamp>
// <json>`, sorted by (key, timestamp) so a consumer can binary-search the
// bytes and run prefix range queries.
package cdxj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ssargent/warcpack/pkg/warc"
)

// TimestampLayout is the 14-digit CDXJ timestamp form of a capture date.
const TimestampLayout = "20060102150405"

// Payload is the JSON side of an index line. Offset and Length locate the
// record in the stored capture file, in its original encoding.
type Payload struct {
	URL      string `json:"url"`
	Digest   string `json:"digest"`
	MIME     string `json:"mime"`
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
	Status   int    `json:"status"`
	Filename string `json:"filename"`
}

// Entry is one index line before serialization.
type Entry struct {
	Key       string
	Timestamp string
	Payload   Payload
}

// SerializationError marks an internal invariant violation while writing
// the index. It is a defect, not a data error.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return "index serialization: " + e.Reason
}

// Indexable reports whether a classified record carries enough of an HTTP
// transaction to fill an index line: an HTTP-bearing kind, a parsed status
// and media type, a timestamp, and a key-derivable web URL. Kinds like
// warcinfo or request never satisfy this; they are classified, not indexed.
func Indexable(rec *warc.ClassifiedRecord) bool {
	switch rec.Kind {
	case warc.KindResponse, warc.KindRevisit, warc.KindResource:
	default:
		return false
	}
	if rec.Status == 0 || rec.MIME == "" || rec.Timestamp.IsZero() {
		return false
	}
	_, err := Key(rec.URL)
	return err == nil
}

// Builder accumulates entries during the single pass over a capture.
type Builder struct {
	entries []Entry
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends an index entry for the record and reports whether the record
// was indexable at all.
func (b *Builder) Add(rec *warc.ClassifiedRecord) bool {
	if !Indexable(rec) {
		return false
	}
	key, err := Key(rec.URL)
	if err != nil {
		return false
	}
	b.entries = append(b.entries, Entry{
		Key:       key,
		Timestamp: rec.Timestamp.UTC().Format(TimestampLayout),
		Payload: Payload{
			URL:      rec.URL,
			Digest:   rec.Digest,
			MIME:     rec.MIME,
			Offset:   rec.Offset,
			Length:   rec.Length,
			Status:   rec.Status,
			Filename: rec.Filename,
		},
	})
	return true
}

// Entries returns the accumulated entries, sorted the same way Finish
// serializes them.
func (b *Builder) Entries() []Entry {
	b.sort()
	return b.entries
}

// Finish sorts the accumulated entries and serializes the index stream.
// Sorting happens here, after the pass, never by emission order: that keeps
// the output stable no matter how classification was scheduled. Zero
// entries serialize to zero bytes.
func (b *Builder) Finish() ([]byte, error) {
	b.sort()
	var buf bytes.Buffer
	for _, e := range b.entries {
		if e.Key == "" || e.Payload.URL == "" || e.Payload.Digest == "" {
			return nil, &SerializationError{Reason: fmt.Sprintf("entry %q is missing a required field", e.Payload.URL)}
		}
		line, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, &SerializationError{Reason: err.Error()}
		}
		fmt.Fprintf(&buf, "%s %s %s\n", e.Key, e.Timestamp, line)
	}
	return buf.Bytes(), nil
}

func (b *Builder) sort() {
	sort.SliceStable(b.entries, func(i, j int) bool {
		if b.entries[i].Key != b.entries[j].Key {
			return b.entries[i].Key < b.entries[j].Key
		}
		return b.entries[i].Timestamp < b.entries[j].Timestamp
	})
}
