// Package frontmatter splits and parses the metadata block at the top of a
// content file. Both YAML (`---` delimited) and TOML (`+++` delimited)
// blocks are supported.
package frontmatter

import (
	"bytes"
	"errors"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a front matter block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline shape and does not attempt to preserve
// original formatting inside the block.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

var formatDelimiters = map[Format]string{
	FormatYAML: "---",
	FormatTOML: "+++",
}

// Split separates the front matter block from the Markdown body.
//
// If the document does not start with a recognized delimiter, format is
// FormatNone and body is the full input.
func Split(content []byte) (block []byte, body []byte, format Format, style Style, err error) {
	style = detectStyle(content)

	for f, delim := range formatDelimiters {
		b, rest, found, serr := splitDelimited(content, delim, style.Newline)
		if serr != nil {
			return nil, nil, f, style, serr
		}
		if found {
			return b, rest, f, style, nil
		}
	}
	return nil, content, FormatNone, style, nil
}

func splitDelimited(content []byte, delim, nl string) (block []byte, body []byte, found bool, err error) {
	open := []byte(delim + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, nil, false, nil
	}

	blockStart := len(open)
	closeLine := []byte(delim + nl)
	if bytes.HasPrefix(content[blockStart:], closeLine) {
		bodyStart := blockStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, nil
	}

	closeSeq := []byte(nl + delim + nl)
	idx := bytes.Index(content[blockStart:], closeSeq)
	if idx < 0 {
		// A lone closing delimiter at EOF (no trailing newline) still counts.
		tail := []byte(nl + delim)
		if bytes.HasSuffix(content, tail) {
			blockEnd := len(content) - len(tail) + len(nl)
			return content[blockStart:blockEnd], []byte{}, true, nil
		}
		return nil, nil, true, ErrMissingClosingDelimiter
	}

	blockEnd := blockStart + idx + len(nl)
	bodyStart := blockStart + idx + len(closeSeq)
	return content[blockStart:blockEnd], content[bodyStart:], true, nil
}

// Join reassembles a document from a raw front matter block and body.
//
// If format is FormatNone, Join returns body as-is.
func Join(block []byte, body []byte, format Format, style Style) []byte {
	if format == FormatNone {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	delim := formatDelimiters[format]

	fence := []byte(delim + nl)
	out := make([]byte, 0, 2*len(fence)+len(block)+len(body))
	out = append(out, fence...)
	out = append(out, block...)
	out = append(out, fence...)
	out = append(out, body...)
	return out
}

// Decode parses a raw front matter block (without delimiters) into a map.
func Decode(block []byte, format Format) (map[string]any, error) {
	fields := map[string]any{}
	if len(block) == 0 {
		return fields, nil
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(block, &fields); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(block, &fields); err != nil {
			return nil, err
		}
	case FormatNone:
		return fields, nil
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && content[len(content)-1] == '\n'

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
