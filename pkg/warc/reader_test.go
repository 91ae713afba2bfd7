package warc

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/warcpack/pkg/warc/warctest"
)

const testDate = "2025-03-01T12:00:00Z"

func readAll(t *testing.T, r *Reader) []*RawRecordEnvelope {
	t.Helper()
	var envs []*RawRecordEnvelope
	for {
		env, err := r.Next()
		if errors.Is(err, io.EOF) {
			return envs
		}
		require.NoError(t, err)
		envs = append(envs, env)
	}
}

func TestReaderPlainOffsets(t *testing.T) {
	rec1 := warctest.Response("http://example.org/a", testDate, 200, "text/html", "<html>a</html>")
	rec2 := warctest.Response("http://example.org/b", testDate, 200, "text/html", "<html>bb</html>")
	source := warctest.Plain(rec1, rec2)

	r, err := NewReader(bytes.NewReader(source), CompressionNone)
	require.NoError(t, err)
	assert.False(t, r.Compressed())

	envs := readAll(t, r)
	require.Len(t, envs, 2)

	assert.Equal(t, int64(0), envs[0].Offset)
	assert.Equal(t, int64(len(rec1)), envs[0].Length)
	assert.Equal(t, int64(len(rec1)), envs[1].Offset)
	assert.Equal(t, int64(len(rec2)), envs[1].Length)
	assert.Equal(t, 0, envs[0].Seq)
	assert.Equal(t, 1, envs[1].Seq)

	// The spans must tile the source exactly.
	assert.Equal(t, int64(len(source)), envs[1].Offset+envs[1].Length)
}

func TestReaderGzipOffsets(t *testing.T) {
	rec1 := warctest.Response("http://example.org/a", testDate, 200, "text/html", "<html>a</html>")
	rec2 := warctest.Warcinfo(testDate)
	source := warctest.Gzip(rec1, rec2)

	r, err := NewReader(bytes.NewReader(source), CompressionGzip)
	require.NoError(t, err)
	assert.True(t, r.Compressed())

	envs := readAll(t, r)
	require.Len(t, envs, 2)

	// Length is the compressed span, bytes are the decompressed record.
	assert.Equal(t, rec1, envs[0].Bytes)
	assert.Equal(t, rec2, envs[1].Bytes)
	assert.Equal(t, int64(0), envs[0].Offset)
	assert.Equal(t, envs[0].Length, envs[1].Offset)
	assert.Equal(t, int64(len(source)), envs[1].Offset+envs[1].Length)

	// Re-slicing the source at each reported span must decode the same record.
	for i, env := range envs {
		span := source[env.Offset : env.Offset+env.Length]
		rr, err := NewReader(bytes.NewReader(span), CompressionGzip)
		require.NoError(t, err)
		again := readAll(t, rr)
		require.Len(t, again, 1)
		assert.Equal(t, envs[i].Bytes, again[0].Bytes)
	}
}

func TestReaderAutoDetect(t *testing.T) {
	rec := warctest.Response("http://example.org/", testDate, 200, "text/html", "hi")

	plain, err := NewReader(bytes.NewReader(warctest.Plain(rec)), CompressionAuto)
	require.NoError(t, err)
	assert.False(t, plain.Compressed())
	assert.Len(t, readAll(t, plain), 1)

	gz, err := NewReader(bytes.NewReader(warctest.Gzip(rec)), CompressionAuto)
	require.NoError(t, err)
	assert.True(t, gz.Compressed())
	assert.Len(t, readAll(t, gz), 1)
}

func TestReaderEmptySource(t *testing.T) {
	for _, mode := range []Compression{CompressionAuto, CompressionNone, CompressionGzip} {
		r, err := NewReader(bytes.NewReader(nil), mode)
		require.NoError(t, err)
		_, err = r.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestReaderTruncatedContent(t *testing.T) {
	rec := warctest.Response("http://example.org/", testDate, 200, "text/html", "<html>hello</html>")
	source := rec[:len(rec)-10]

	r, err := NewReader(bytes.NewReader(source), CompressionNone)
	require.NoError(t, err)
	_, err = r.Next()

	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, int64(0), malformed.Offset)
}

func TestReaderMissingBoundary(t *testing.T) {
	rec := warctest.Response("http://example.org/", testDate, 200, "text/html", "x")
	source := rec[:len(rec)-4]

	r, err := NewReader(bytes.NewReader(source), CompressionNone)
	require.NoError(t, err)
	_, err = r.Next()

	var malformed *MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
}

func TestReaderBadVersionLine(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("HTTP/1.1 200 OK\r\n\r\n")), CompressionNone)
	require.NoError(t, err)
	_, err = r.Next()

	var malformed *MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
}

func TestReaderTruncatedGzipMember(t *testing.T) {
	rec := warctest.Response("http://example.org/", testDate, 200, "text/html", "<html>hello world</html>")
	source := warctest.Gzip(rec)
	source = source[:len(source)-6]

	r, err := NewReader(bytes.NewReader(source), CompressionGzip)
	require.NoError(t, err)
	_, err = r.Next()

	var malformed *MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
}

func TestReaderErrorOffsetOnSecondRecord(t *testing.T) {
	rec := warctest.Response("http://example.org/", testDate, 200, "text/html", "x")
	source := append([]byte{}, rec...)
	source = append(source, []byte("garbage that is not a record")...)

	r, err := NewReader(bytes.NewReader(source), CompressionNone)
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()

	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, int64(len(rec)), malformed.Offset)
}
