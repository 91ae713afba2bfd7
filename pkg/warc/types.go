package warc

import (
	"fmt"
	"time"
)

// Kind classifies what a WARC record represents.
type Kind int

const (
	KindOther Kind = iota
	KindResponse
	KindRevisit
	KindResource
	KindRequest
	KindMetadata
	KindWarcinfo
)

// String returns the WARC-Type header value for the kind.
func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindRevisit:
		return "revisit"
	case KindResource:
		return "resource"
	case KindRequest:
		return "request"
	case KindMetadata:
		return "metadata"
	case KindWarcinfo:
		return "warcinfo"
	default:
		return "other"
	}
}

// ParseKind maps a WARC-Type header value to a Kind. Unknown values map
// to KindOther rather than failing, since the WARC spec allows extension
// record types.
func ParseKind(value string) Kind {
	switch value {
	case "response":
		return KindResponse
	case "revisit":
		return KindRevisit
	case "resource":
		return KindResource
	case "request":
		return KindRequest
	case "metadata":
		return KindMetadata
	case "warcinfo":
		return KindWarcinfo
	default:
		return KindOther
	}
}

// Compression selects the transport encoding of a capture source.
type Compression int

const (
	// CompressionAuto sniffs the gzip magic bytes at stream construction.
	CompressionAuto Compression = iota
	// CompressionNone reads records as a plain concatenated WARC.
	CompressionNone
	// CompressionGzip reads one gzip member per record.
	CompressionGzip
)

// RawRecordEnvelope is the unparsed byte span of one record plus where it
// sat in the source. Bytes always hold the decompressed record; Offset and
// Length always describe the span in the original source encoding, because
// replay tooling seeks into the original file.
type RawRecordEnvelope struct {
	Bytes  []byte
	Offset int64
	Length int64
	Seq    int
}

// ClassifiedRecord is the result of classifying one record. Status is zero
// and MIME empty for records that do not carry an embedded HTTP response.
type ClassifiedRecord struct {
	Kind      Kind
	URL       string
	Timestamp time.Time
	Status    int
	MIME      string
	Digest    string
	Offset    int64
	Length    int64
	Filename  string
}

// HasHTTP reports whether the record carried a parsed HTTP transaction.
func (r *ClassifiedRecord) HasHTTP() bool {
	return r.Status != 0
}

// MalformedRecordError reports unreadable framing at a source offset.
// It aborts indexing; the reader never skips ahead past bad framing.
type MalformedRecordError struct {
	Offset int64
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at offset %d: %s", e.Offset, e.Reason)
}

// ClassificationError reports a record that framed correctly but whose
// header block or embedded HTTP head could not be parsed.
type ClassificationError struct {
	Offset int64
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify record at offset %d: %s", e.Offset, e.Reason)
}
