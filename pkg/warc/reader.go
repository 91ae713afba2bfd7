package warc

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const headerTerminator = "\r\n\r\n"

// frameDecoder yields the raw bytes of the next record together with the
// exact number of source bytes the record occupied, io.EOF at a clean end
// of stream, or *MalformedRecordError for anything else. The two transport
// encodings implement this once each so the iteration and classification
// logic never branches on the encoding.
type frameDecoder interface {
	next() (data []byte, length int64, err error)
	offset() int64
}

// Reader yields one logical WARC record at a time from a capture source,
// in source order, numbered from zero. It handles both the plain
// concatenated encoding and the per-record gzip member encoding.
type Reader struct {
	dec        frameDecoder
	seq        int
	compressed bool
}

// NewReader builds a record reader over src. With CompressionAuto the
// encoding is sniffed from the gzip magic bytes at the start of the stream.
func NewReader(src io.Reader, mode Compression) (*Reader, error) {
	br := bufio.NewReaderSize(src, 64<<10)

	compressed := mode == CompressionGzip
	if mode == CompressionAuto {
		magic, err := br.Peek(2)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		compressed = len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b
	}

	r := &Reader{compressed: compressed}
	if compressed {
		r.dec = &gzipDecoder{src: &countingReader{r: br}}
	} else {
		r.dec = &plainDecoder{r: br}
	}
	return r, nil
}

// Compressed reports the transport encoding the reader settled on.
func (r *Reader) Compressed() bool {
	return r.compressed
}

// Next returns the next record envelope, or io.EOF after the last record.
// Offset and Length on the envelope describe the span the record occupied
// in the source encoding, compressed or not.
func (r *Reader) Next() (*RawRecordEnvelope, error) {
	start := r.dec.offset()
	data, length, err := r.dec.next()
	if err != nil {
		return nil, err
	}
	env := &RawRecordEnvelope{Bytes: data, Offset: start, Length: length, Seq: r.seq}
	r.seq++
	return env, nil
}

// plainDecoder frames records in an uncompressed WARC: the record header
// block declares a Content-Length, and each record is followed by a CRLF
// CRLF boundary that belongs to the record's span.
type plainDecoder struct {
	r   *bufio.Reader
	pos int64
}

func (d *plainDecoder) offset() int64 {
	return d.pos
}

func (d *plainDecoder) next() ([]byte, int64, error) {
	start := d.pos

	header, err := d.readHeaderBlock(start)
	if err != nil {
		return nil, 0, err
	}

	contentLength, err := headerContentLength(header, start)
	if err != nil {
		return nil, 0, err
	}

	data := make([]byte, len(header)+int(contentLength))
	copy(data, header)
	n, err := io.ReadFull(d.r, data[len(header):])
	d.pos += int64(n)
	if err != nil {
		return nil, 0, &MalformedRecordError{Offset: start, Reason: "record content truncated"}
	}

	boundary := make([]byte, 4)
	n, err = io.ReadFull(d.r, boundary)
	d.pos += int64(n)
	if err != nil || string(boundary) != headerTerminator {
		return nil, 0, &MalformedRecordError{Offset: start, Reason: "missing record boundary"}
	}

	return data, d.pos - start, nil
}

// readHeaderBlock reads up to and including the blank line terminating the
// record header. io.EOF before any bytes means a clean end of stream.
func (d *plainDecoder) readHeaderBlock(start int64) ([]byte, error) {
	var header []byte
	for {
		line, err := d.r.ReadString('\n')
		d.pos += int64(len(line))
		if err != nil {
			if errors.Is(err, io.EOF) && len(header) == 0 && line == "" {
				return nil, io.EOF
			}
			return nil, &MalformedRecordError{Offset: start, Reason: "record header truncated"}
		}
		if len(header) == 0 && !strings.HasPrefix(line, "WARC/") {
			return nil, &MalformedRecordError{Offset: start, Reason: "missing WARC version line"}
		}
		header = append(header, line...)
		if line == "\r\n" {
			return header, nil
		}
	}
}

// headerContentLength scans the header block for the Content-Length field,
// which the plain encoding needs before the record can be framed.
func headerContentLength(header []byte, start int64) (int64, error) {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "content-length") {
			n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || n < 0 {
				return 0, &MalformedRecordError{Offset: start, Reason: "invalid Content-Length"}
			}
			return n, nil
		}
	}
	return 0, &MalformedRecordError{Offset: start, Reason: "record header has no Content-Length"}
}

// countingReader tracks how many bytes the gzip decoder actually consumed
// from the source. Implementing io.ByteReader keeps flate from wrapping the
// source in its own buffer, so the count is exact at every member boundary.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// gzipDecoder frames records in a member-compressed WARC: each record is an
// independent gzip member, and the record's length is the compressed byte
// count consumed from the source, since that is the span used for later
// random access.
type gzipDecoder struct {
	src *countingReader
	gz  *gzip.Reader
}

func (d *gzipDecoder) offset() int64 {
	return d.src.n
}

func (d *gzipDecoder) next() ([]byte, int64, error) {
	start := d.src.n

	var err error
	if d.gz == nil {
		d.gz, err = gzip.NewReader(d.src)
	} else {
		err = d.gz.Reset(d.src)
	}
	if err != nil {
		if errors.Is(err, io.EOF) && d.src.n == start {
			return nil, 0, io.EOF
		}
		return nil, 0, &MalformedRecordError{Offset: start, Reason: "invalid gzip member header: " + err.Error()}
	}
	// Reset re-enables multistream mode; each record must stop at its own
	// member boundary.
	d.gz.Multistream(false)

	data, err := io.ReadAll(d.gz)
	if err != nil {
		return nil, 0, &MalformedRecordError{Offset: start, Reason: "truncated gzip member: " + err.Error()}
	}
	return data, d.src.n - start, nil
}
