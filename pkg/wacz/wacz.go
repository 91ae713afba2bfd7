// Package wacz drives the full pipeline: a single pass over a WARC capture
// producing index entries, page records and serialized artifact buffers,
// then assembly of everything into one WACZ container.
package wacz

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/warcpack/pkg/cdxj"
	"github.com/ssargent/warcpack/pkg/pages"
	"github.com/ssargent/warcpack/pkg/warc"
)

// Version is the warcpack release recorded in produced manifests.
const Version = "0.1.0"

// Options configures a single indexing run.
type Options struct {
	// Compression of the capture source; defaults to auto-detection.
	Compression warc.Compression
	// Filename used for the capture copy inside the container and in index
	// entries. Defaults to data.warc, or data.warc.gz for compressed input.
	Filename string
	// Software recorded in the manifest. Defaults to "warcpack <version>".
	Software string
}

// IndexedArchive is everything one pass over a capture accumulates: the
// structured entries and pages, the serialized artifact buffers, and the
// byte-for-byte capture copy. It is handed to Assemble by value; nothing
// here is shared with or mutated by later runs.
type IndexedArchive struct {
	Entries []cdxj.Entry
	Pages   []pages.Record

	CaptureBytes []byte
	IndexBytes   []byte
	PagesBytes   []byte

	Compressed bool
	Filename   string
	Software   string
}

// Index performs the single pass over the capture source: every record is
// read exactly once, classified, and fed to both the index builder and the
// page selector. The capture bytes are accumulated verbatim alongside, so
// entry offsets reference the exact bytes later stored in the container.
// The first malformed record or classification failure aborts the run.
func Index(src io.Reader, opts Options) (*IndexedArchive, error) {
	var capture bytes.Buffer
	reader, err := warc.NewReader(io.TeeReader(src, &capture), opts.Compression)
	if err != nil {
		return nil, err
	}

	filename := opts.Filename
	if filename == "" {
		filename = "data.warc"
		if reader.Compressed() {
			filename += ".gz"
		}
	}
	software := opts.Software
	if software == "" {
		software = "warcpack " + Version
	}

	builder := cdxj.NewBuilder()
	selector := pages.NewSelector()
	for {
		env, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := warc.Classify(env, filename)
		if err != nil {
			return nil, err
		}
		indexed := builder.Add(rec)
		if selector.Add(rec) && !indexed {
			// Page eligibility is strictly narrower than indexability, so a
			// page without an index entry is a defect in the predicates.
			return nil, fmt.Errorf("page record for %q has no index entry", rec.URL)
		}
	}

	indexBytes, err := builder.Finish()
	if err != nil {
		return nil, err
	}
	pagesBytes, err := selector.Finish()
	if err != nil {
		return nil, err
	}

	return &IndexedArchive{
		Entries:      builder.Entries(),
		Pages:        selector.Records(),
		CaptureBytes: capture.Bytes(),
		IndexBytes:   indexBytes,
		PagesBytes:   pagesBytes,
		Compressed:   reader.Compressed(),
		Filename:     filename,
		Software:     software,
	}, nil
}

// CapturePath is where the capture copy lives inside the container.
func (ia *IndexedArchive) CapturePath() string {
	return "archive/" + ia.Filename
}
