// Package datapackage composes the frictionless data-package manifest that
// describes every artifact bundled into a WACZ container, plus the digest
// sidecar covering the manifest itself.
package datapackage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"time"
)

// Profile and version identifiers required by the WACZ spec.
const (
	Profile     = "data-package"
	WACZVersion = "1.1.1"
)

// Well-known paths inside the container.
const (
	Name       = "datapackage.json"
	DigestName = "datapackage-digest.json"
	IndexPath  = "indexes/index.cdxj"
	PagesPath  = "pages/pages.jsonl"
	ArchiveDir = "archive"
)

// Declared formats for the bundled resources.
const (
	FormatWARC  = "warc"
	FormatCDXJ  = "cdxj"
	FormatPages = "json-pages-1.0"
)

// Resource describes one artifact bundled into the container.
type Resource struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Hash   string `json:"hash"`
	Format string `json:"format"`
}

// DataPackage is the container manifest. It is immutable once composed.
type DataPackage struct {
	Profile     string     `json:"profile"`
	WACZVersion string     `json:"wacz_version"`
	Software    string     `json:"software"`
	Created     string     `json:"created"`
	Resources   []Resource `json:"resources"`
}

// Digest is the datapackage-digest.json sidecar: a hash of the serialized
// manifest, so consumers can verify the manifest before trusting it.
type Digest struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// NewResource describes one byte buffer destined for containerPath.
func NewResource(containerPath string, data []byte, format string) Resource {
	return Resource{
		Name:   path.Base(containerPath),
		Path:   containerPath,
		Bytes:  len(data),
		Hash:   Hash(data),
		Format: format,
	}
}

// Compose builds the manifest for the three artifact buffers. It must only
// run after the record pass has fully drained the capture: a manifest built
// mid-traversal would describe buffers that are still growing, violating
// the rule that no written artifact goes undeclared.
func Compose(capturePath string, capture, index, pages []byte, software string) *DataPackage {
	return &DataPackage{
		Profile:     Profile,
		WACZVersion: WACZVersion,
		Software:    software,
		Created:     time.Now().UTC().Format(time.RFC3339),
		Resources: []Resource{
			NewResource(capturePath, capture, FormatWARC),
			NewResource(IndexPath, index, FormatCDXJ),
			NewResource(PagesPath, pages, FormatPages),
		},
	}
}

// Marshal serializes the manifest for writing into the container.
func (p *DataPackage) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serialize datapackage: %w", err)
	}
	return data, nil
}

// DigestOf returns the sidecar for the serialized manifest bytes.
func DigestOf(manifest []byte) Digest {
	return Digest{Path: Name, Hash: Hash(manifest)}
}

// Hash is the fixed resource digest: sha256 over the exact stored bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
