// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package export writes and reads the portable JSON document of a scan and
// its analysis, optionally zstd-compressed.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion is written into every document.
const FormatVersion = 1

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Document is the export file.
type Document struct {
	Version     int              `json:"version" jsonschema:"required"`
	GeneratedAt time.Time        `json:"generated_at" jsonschema:"required"`
	Snapshot    *model.Snapshot  `json:"snapshot" jsonschema:"required"`
	Report      *analyzer.Report `json:"report,omitempty"`
}

// Write encodes snap and report to w. now stamps generated_at.
func Write(w io.Writer, snap *model.Snapshot, report *analyzer.Report, compress bool, now time.Time) error {
	doc := Document{Version: FormatVersion, GeneratedAt: now.UTC(), Snapshot: snap, Report: report}
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	return zw.Close()
}

// Read decodes a document written by Write, compressed or not.
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var doc Document
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("export version %d is newer than supported version %d", doc.Version, FormatVersion)
	}
	return &doc, nil
}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Schema returns the JSON schema of Document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Document{})
	s.Title = "Claudius export"
	return s
}
