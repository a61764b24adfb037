package scan

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Codec converts exported files between their on-disk encoding and UTF-8.
type Codec struct {
	name     string
	encoding encoding.Encoding
}

var codecs = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8BOM,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
	"cp866":        charmap.CodePage866,
}

var codecAliases = map[string]string{
	"":       "utf-8",
	"utf8":   "utf-8",
	"cp1251": "windows-1251",
	"cp1252": "windows-1252",
	"koi8r":  "koi8-r",
	"ibm866": "cp866",
}

// NewCodec resolves an encoding name. The empty name selects UTF-8, which
// also strips a leading byte order mark.
func NewCodec(name string) (*Codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := codecAliases[key]; ok {
		key = alias
	}
	enc, ok := codecs[key]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return &Codec{name: key, encoding: enc}, nil
}

// Name returns the canonical encoding name.
func (c *Codec) Name() string { return c.name }

// Decode converts raw file content to UTF-8 text.
func (c *Codec) Decode(data []byte) (string, error) {
	out, err := c.encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	return string(out), nil
}

// Encode converts UTF-8 text to the codec's encoding. UTF-8 output is
// written without a byte order mark.
func (c *Codec) Encode(text string) ([]byte, error) {
	if c.encoding == unicode.UTF8BOM {
		return []byte(text), nil
	}
	out, err := c.encoding.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	return out, nil
}
