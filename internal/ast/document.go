package ast

import (
	"encoding/json"
	"fmt"
	"io"

	semver "github.com/Masterminds/semver/v3"

	"github.com/aleph-lang/constant-folding/internal/errors"
)

// FormatVersion is the document format written by this package
const FormatVersion = "1.0.0"

// SupportedFormats is the range of document formats accepted by ReadDocument
const SupportedFormats = ">=1.0.0, <2.0.0"

// Document is a versioned envelope around a single tree
type Document struct {
	FormatVersion string
	Root          Node
}

type documentWire struct {
	FormatVersion string          `json:"format_version,omitempty"`
	AST           json.RawMessage `json:"ast"`
}

// NewDocument wraps root in a document of the current format version
func NewDocument(root Node) *Document {
	return &Document{FormatVersion: FormatVersion, Root: root}
}

// CheckFormatVersion verifies that version satisfies SupportedFormats.
// An empty version is treated as the current format.
func CheckFormatVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return errors.UnsupportedVersion(version, SupportedFormats)
	}
	return nil
}

// ReadDocument decodes a document and validates its format version
func ReadDocument(r io.Reader) (*Document, error) {
	var dw documentWire
	if err := json.NewDecoder(r).Decode(&dw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if err := CheckFormatVersion(dw.FormatVersion); err != nil {
		return nil, err
	}
	if len(dw.AST) == 0 {
		return nil, errors.InvalidNode("document has no \"ast\" field")
	}

	root, err := Unmarshal(dw.AST)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}

	version := dw.FormatVersion
	if version == "" {
		version = FormatVersion
	}
	return &Document{FormatVersion: version, Root: root}, nil
}

// Write encodes the document to w, indenting when indent is true
func (d *Document) Write(w io.Writer, indent bool) error {
	body, err := Marshal(d.Root)
	if err != nil {
		return err
	}

	dw := documentWire{FormatVersion: d.FormatVersion, AST: body}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(dw)
}
