package frontmatter

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// rawBlock receives the undecoded front matter of a content file.
type rawBlock struct {
	found  bool
	format Format
	data   []byte
}

func capture(format Format) func([]byte, any) error {
	return func(data []byte, v any) error {
		block, ok := v.(*rawBlock)
		if !ok {
			return fmt.Errorf("unexpected front matter target %T", v)
		}
		block.found = true
		block.format = format
		block.data = append([]byte(nil), data...)
		return nil
	}
}

var embeddedFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", capture(FormatYAML)),
	frontmatter.NewFormat("+++", "+++", capture(FormatTOML)),
	frontmatter.NewFormat(";;;", ";;;", capture(FormatJSON)),
}

// Split separates embedded front matter (YAML "---", TOML "+++" or JSON ";;;"
// delimited) from the markdown body of a content file.
//
// A document without front matter returns a nil record and the full input.
func Split(content []byte) (*Record, []byte, error) {
	var block rawBlock
	body, err := frontmatter.Parse(bytes.NewReader(content), &block, embeddedFormats...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if !block.found {
		return nil, body, nil
	}
	rec, err := Decode(block.format, block.data)
	if err != nil {
		return nil, nil, err
	}
	return rec, body, nil
}

// Decoder turns metadata and content files into validated records.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// DecodeMetadata decodes a standalone metadata file, choosing the format by extension.
func (d *Decoder) DecodeMetadata(path string, data []byte) (*Record, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	rec, err := Decode(format, data)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// SplitContent separates and validates the front matter of a content file.
func (d *Decoder) SplitContent(data []byte) (*Record, []byte, error) {
	rec, body, err := Split(data)
	if err != nil {
		return nil, nil, err
	}
	if rec != nil {
		if err := rec.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return rec, body, nil
}
