package parser

import (
	"errors"
	"strings"
)

// FieldParser extracts fields from a string containing a single event.
type FieldParser struct {
	data      string
	err       error
	removeBOM bool
}

func scanSegment(chunk string) (name FieldName, data string, valid bool) {
	chunk = trimNewline(chunk)

	colonPos := strings.IndexByte(chunk, ':')
	if colonPos > maxFieldNameLength {
		return "", "", false
	}
	if colonPos == -1 {
		colonPos = len(chunk)
	}

	name, ok := getFieldName(chunk[:colonPos])
	if !ok {
		return "", "", false
	}

	dataStart := min(colonPos+1, len(chunk))
	return name, trimFirstSpace(chunk[dataStart:]), true
}

// ErrUnexpectedEOF is returned when the input is completely parsed but no complete field was found at the end.
var ErrUnexpectedEOF = errors.New("active-sse: unexpected end of input")

// Next parses the next available field in the remaining buffer.
// It returns false if there are no more fields to parse.
// A Field with an empty Name marks the end of an event.
func (f *FieldParser) Next(r *Field) bool {
	if f.removeBOM && f.data != "" {
		f.data = strings.TrimPrefix(f.data, "\xEF\xBB\xBF")
		f.removeBOM = false
	}

	for f.data != "" {
		chunk, rest := NextChunk(f.data)
		if !chunk.HasNewline {
			f.err = ErrUnexpectedEOF
			return false
		}
		f.data = rest

		// A blank line ends the current event.
		if isNewlineChar(chunk.Data[0]) {
			*r = Field{}
			return true
		}

		name, data, ok := scanSegment(chunk.Data)
		if !ok {
			// Comment or unknown field name, per spec it is ignored.
			continue
		}

		r.Name = name
		r.Value = data

		return true
	}

	return false
}

// Reset changes the buffer from which fields are parsed.
func (f *FieldParser) Reset(data string) {
	f.data = data
	f.err = nil
}

// RemoveBOM configures the parser to strip a leading UTF-8 byte order mark,
// if present, before the next field is parsed.
func (f *FieldParser) RemoveBOM(flag bool) {
	f.removeBOM = flag
}

// Err returns the last error encountered by the parser. It is either nil or ErrUnexpectedEOF.
func (f *FieldParser) Err() error {
	return f.err
}

func trimNewline(c string) string {
	l := len(c)
	if l > 0 && c[l-1] == '\n' {
		c = c[:l-1]
		l--
	}
	if l > 0 && c[l-1] == '\r' {
		c = c[:l-1]
	}

	return c
}

func trimFirstSpace(c string) string {
	if c != "" && c[0] == ' ' {
		return c[1:]
	}
	return c
}

// NewFieldParser creates a parser that extracts fields from the given string.
func NewFieldParser(data string) *FieldParser {
	return &FieldParser{data: data}
}
