// Package warctest builds small synthetic WARC captures for tests, in both
// the plain concatenated encoding and the per-record gzip member encoding.
package warctest

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzip"
)

// Record assembles one record from its WARC header fields and content
// block, including the CRLF CRLF boundary that closes the record's span.
func Record(headers []string, content []byte) []byte {
	var b bytes.Buffer
	b.WriteString("WARC/1.1\r\n")
	for _, h := range headers {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(content))
	b.WriteString("\r\n")
	b.Write(content)
	b.WriteString("\r\n\r\n")
	return b.Bytes()
}

// Response builds a response record with an embedded HTTP head and body.
func Response(url, date string, status int, contentType, body string) []byte {
	content := fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n%s",
		status, http.StatusText(status), contentType, len(body), body)
	return Record([]string{
		"WARC-Type: response",
		"WARC-Target-URI: " + url,
		"WARC-Date: " + date,
		"Content-Type: application/http; msgtype=response",
	}, []byte(content))
}

// Resource builds a resource record carrying the payload directly.
func Resource(url, date, contentType, body string) []byte {
	return Record([]string{
		"WARC-Type: resource",
		"WARC-Target-URI: " + url,
		"WARC-Date: " + date,
		"Content-Type: " + contentType,
	}, []byte(body))
}

// Warcinfo builds a warcinfo record.
func Warcinfo(date string) []byte {
	return Record([]string{
		"WARC-Type: warcinfo",
		"WARC-Date: " + date,
		"Content-Type: application/warc-fields",
	}, []byte("software: warctest\r\n"))
}

// Plain concatenates records into an uncompressed capture.
func Plain(records ...[]byte) []byte {
	return bytes.Join(records, nil)
}

// Gzip compresses each record into its own gzip member.
func Gzip(records ...[]byte) []byte {
	var b bytes.Buffer
	for _, rec := range records {
		gw := gzip.NewWriter(&b)
		if _, err := gw.Write(rec); err != nil {
			panic(err)
		}
		if err := gw.Close(); err != nil {
			panic(err)
		}
	}
	return b.Bytes()
}
