package warc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/warcpack/pkg/warc/warctest"
)

func classifyOne(t *testing.T, source []byte) (*ClassifiedRecord, error) {
	t.Helper()
	r, err := NewReader(bytes.NewReader(source), CompressionNone)
	require.NoError(t, err)
	env, err := r.Next()
	require.NoError(t, err)
	return Classify(env, "data.warc")
}

func TestClassifyResponse(t *testing.T) {
	body := "<html><body>hello</body></html>"
	rec := warctest.Response("http://example.org/a", testDate, 200, "text/html; charset=UTF-8", body)

	got, err := classifyOne(t, rec)
	require.NoError(t, err)

	assert.Equal(t, KindResponse, got.Kind)
	assert.Equal(t, "http://example.org/a", got.URL)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), got.Timestamp.UTC())
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "text/html", got.MIME, "content type parameters are stripped")
	assert.Equal(t, "data.warc", got.Filename)
	assert.Equal(t, int64(0), got.Offset)
	assert.Equal(t, int64(len(rec)), got.Length)

	sum := sha256.Sum256([]byte(body))
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), got.Digest)
	assert.True(t, got.HasHTTP())
}

func TestClassifyErrorResponse(t *testing.T) {
	rec := warctest.Response("http://example.org/missing", testDate, 404, "text/html", "<html>not found</html>")

	got, err := classifyOne(t, rec)
	require.NoError(t, err)
	assert.Equal(t, 404, got.Status)
	assert.Equal(t, "text/html", got.MIME)
}

func TestClassifyWarcinfo(t *testing.T) {
	got, err := classifyOne(t, warctest.Warcinfo(testDate))
	require.NoError(t, err)

	assert.Equal(t, KindWarcinfo, got.Kind)
	assert.Empty(t, got.URL)
	assert.Zero(t, got.Status)
	assert.Empty(t, got.MIME)
	assert.False(t, got.HasHTTP())
	assert.NotEmpty(t, got.Digest, "non-HTTP records are digested over their content block")
}

func TestClassifyResource(t *testing.T) {
	got, err := classifyOne(t, warctest.Resource("http://example.org/style.css", testDate, "text/css", "body{}"))
	require.NoError(t, err)

	assert.Equal(t, KindResource, got.Kind)
	assert.Equal(t, "text/css", got.MIME)
	assert.Zero(t, got.Status)
}

func TestClassifyCorruptHTTPHead(t *testing.T) {
	rec := warctest.Record([]string{
		"WARC-Type: response",
		"WARC-Target-URI: http://example.org/",
		"WARC-Date: " + testDate,
		"Content-Type: application/http; msgtype=response",
	}, []byte("not a status line\r\n\r\nbody"))

	_, err := classifyOne(t, rec)
	var cerr *ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, int64(0), cerr.Offset)
}

func TestClassifyBadDate(t *testing.T) {
	rec := warctest.Record([]string{
		"WARC-Type: response",
		"WARC-Target-URI: http://example.org/",
		"WARC-Date: yesterday",
		"Content-Type: application/http; msgtype=response",
	}, []byte("HTTP/1.1 200 OK\r\n\r\nbody"))

	_, err := classifyOne(t, rec)
	var cerr *ClassificationError
	assert.ErrorAs(t, err, &cerr)
}

func TestClassifyRevisitWithoutBody(t *testing.T) {
	rec := warctest.Record([]string{
		"WARC-Type: revisit",
		"WARC-Target-URI: http://example.org/a",
		"WARC-Date: " + testDate,
		"Content-Type: application/http; msgtype=response",
	}, []byte("HTTP/1.1 200 OK\r\nContent-Type: text/html"))

	got, err := classifyOne(t, rec)
	require.NoError(t, err)
	assert.Equal(t, KindRevisit, got.Kind)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "text/html", got.MIME)

	sum := sha256.Sum256(nil)
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), got.Digest)
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindResponse, KindRevisit, KindResource, KindRequest, KindMetadata, KindWarcinfo} {
		assert.Equal(t, kind, ParseKind(kind.String()))
	}
	assert.Equal(t, KindOther, ParseKind("conversion"))
}
