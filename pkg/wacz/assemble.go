package wacz

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/ssargent/warcpack/pkg/datapackage"
)

// AssemblyError reports an I/O failure while writing the container. It is
// fatal: a partial container is not salvageable.
type AssemblyError struct {
	Op  string
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble container: %s: %v", e.Op, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// Assemble composes the manifest and writes the container as a byte slice.
// Entries are written manifest-first so the manifest is discoverable before
// anything it describes; the zip directory records length and CRC for every
// entry.
func Assemble(ia *IndexedArchive) ([]byte, error) {
	var buf bytes.Buffer
	if err := assemble(&buf, ia); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile assembles the container at path, building it in a temporary
// sibling file and renaming into place so a failed run never leaves a
// partial container at the destination.
func WriteFile(ia *IndexedArchive, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &AssemblyError{Op: "create " + tmp, Err: err}
	}
	if err := assemble(f, ia); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &AssemblyError{Op: "close " + tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &AssemblyError{Op: "rename to " + path, Err: err}
	}
	return nil
}

func assemble(w io.Writer, ia *IndexedArchive) error {
	pkg := datapackage.Compose(ia.CapturePath(), ia.CaptureBytes, ia.IndexBytes, ia.PagesBytes, ia.Software)
	manifest, err := pkg.Marshal()
	if err != nil {
		return &AssemblyError{Op: "marshal manifest", Err: err}
	}
	digest, err := json.Marshal(datapackage.DigestOf(manifest))
	if err != nil {
		return &AssemblyError{Op: "marshal manifest digest", Err: err}
	}

	// The capture copy is stored uncompressed when the source was already
	// gzip per record; deflating gzip members again buys nothing.
	captureMethod := uint16(zip.Deflate)
	if ia.Compressed {
		captureMethod = zip.Store
	}

	entries := []struct {
		name   string
		data   []byte
		method uint16
	}{
		{datapackage.Name, manifest, zip.Deflate},
		{ia.CapturePath(), ia.CaptureBytes, captureMethod},
		{datapackage.IndexPath, ia.IndexBytes, zip.Deflate},
		{datapackage.PagesPath, ia.PagesBytes, zip.Deflate},
		{datapackage.DigestName, digest, zip.Deflate},
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	for _, entry := range entries {
		ew, err := zw.CreateHeader(&zip.FileHeader{Name: entry.name, Method: entry.method})
		if err != nil {
			return &AssemblyError{Op: "create entry " + entry.name, Err: err}
		}
		if _, err := ew.Write(entry.data); err != nil {
			return &AssemblyError{Op: "write entry " + entry.name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &AssemblyError{Op: "close container", Err: err}
	}
	return nil
}
