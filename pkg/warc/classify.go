package warc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Classify parses one record envelope into a ClassifiedRecord. The WARC
// header block is parsed unconditionally for kind, target URL and capture
// timestamp; records that embed an HTTP response additionally get status,
// content type and a payload digest. A record that is not an HTTP
// transaction is not an error, its kind is simply recorded. A record whose
// header block or embedded HTTP head cannot be parsed fails with a
// *ClassificationError, which is fatal to the run: a corrupt index is worse
// than a failed one.
func Classify(env *RawRecordEnvelope, filename string) (*ClassifiedRecord, error) {
	headerEnd := bytes.Index(env.Bytes, []byte(headerTerminator))
	if headerEnd < 0 {
		return nil, &ClassificationError{Offset: env.Offset, Reason: "header block has no terminating blank line"}
	}
	lines := strings.Split(string(env.Bytes[:headerEnd]), "\r\n")
	if !strings.HasPrefix(lines[0], "WARC/") {
		return nil, &ClassificationError{Offset: env.Offset, Reason: "missing WARC version line"}
	}
	rest := env.Bytes[headerEnd+len(headerTerminator):]

	rec := &ClassifiedRecord{
		Kind:     KindOther,
		Offset:   env.Offset,
		Length:   env.Length,
		Filename: filename,
	}
	contentLength := int64(-1)
	contentType := ""
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "warc-type":
			rec.Kind = ParseKind(value)
		case "warc-target-uri":
			// Some writers wrap the target URI in angle brackets.
			rec.URL = strings.Trim(value, "<>")
		case "warc-date":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, &ClassificationError{Offset: env.Offset, Reason: "invalid WARC-Date: " + value}
			}
			rec.Timestamp = ts
		case "content-length":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return nil, &ClassificationError{Offset: env.Offset, Reason: "invalid Content-Length: " + value}
			}
			contentLength = n
		case "content-type":
			contentType = value
		}
	}
	if contentLength < 0 || contentLength > int64(len(rest)) {
		return nil, &ClassificationError{Offset: env.Offset, Reason: "content length exceeds record span"}
	}
	content := rest[:contentLength]

	httpKind := rec.Kind == KindResponse || rec.Kind == KindRevisit || rec.Kind == KindResource
	if httpKind && strings.HasPrefix(contentType, "application/http") {
		if err := classifyHTTP(rec, content, env.Offset); err != nil {
			return nil, err
		}
		return rec, nil
	}

	// Resource records carry the payload directly; the WARC Content-Type
	// is the payload's own media type.
	if rec.Kind == KindResource {
		rec.MIME = mediaType(contentType)
	}
	rec.Digest = payloadDigest(content)
	return rec, nil
}

// classifyHTTP parses the embedded HTTP response head for status and
// content type, then digests the remaining payload bytes exactly as stored.
func classifyHTTP(rec *ClassifiedRecord, content []byte, offset int64) error {
	head := content
	var payload []byte
	if i := bytes.Index(content, []byte(headerTerminator)); i >= 0 {
		head = content[:i]
		payload = content[i+len(headerTerminator):]
	}
	// A revisit record may store the response head alone, with no body and
	// no terminating blank line, so a missing terminator is not an error.

	lines := strings.Split(string(head), "\r\n")
	status, err := parseStatusLine(lines[0])
	if err != nil {
		return &ClassificationError{Offset: offset, Reason: err.Error()}
	}
	rec.Status = status
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "content-type") {
			rec.MIME = mediaType(value)
		}
	}
	rec.Digest = payloadDigest(payload)
	return nil
}

func parseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("invalid HTTP status line %q", line)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil || status < 100 || status > 999 {
		return 0, fmt.Errorf("invalid HTTP status %q", fields[1])
	}
	return status, nil
}

// mediaType reduces a Content-Type header value to its lowercased media
// type, dropping parameters such as charset.
func mediaType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// payloadDigest is pinned to sha256: changing the algorithm would
// invalidate every previously produced index.
func payloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}
