package parser_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/activeledger/active-sse-go/internal/parser"
)

type errReader struct{}

var errReadFailed = errors.New("read failed")

func (errReader) Read(_ []byte) (int, error) {
	return 0, errReadFailed
}

func TestParser(t *testing.T) {
	t.Parallel()

	type test struct {
		input    io.Reader
		err      error
		name     string
		expected []parser.Field
	}

	tests := []test{
		{
			name: "Valid input",
			input: strings.NewReader(`
event: activity
data: first chunk
data: second chunk
:comment
data: third chunk
id: 1

: comment
event: contractEvent
data: event payload
id: 2
retry: 15


data: here's some data: you deserve it
`),
			expected: []parser.Field{
				{Name: parser.FieldNameEvent, Value: "activity"},
				{Name: parser.FieldNameData, Value: "first chunk"},
				{Name: parser.FieldNameData, Value: "second chunk"},
				{Name: parser.FieldNameData, Value: "third chunk"},
				{Name: parser.FieldNameID, Value: "1"},
				{},
				{Name: parser.FieldNameEvent, Value: "contractEvent"},
				{Name: parser.FieldNameData, Value: "event payload"},
				{Name: parser.FieldNameID, Value: "2"},
				{Name: parser.FieldNameRetry, Value: "15"},
				{},
				{Name: parser.FieldNameData, Value: "here's some data: you deserve it"},
			},
		},
		{
			name:  "Valid input with BOM",
			input: strings.NewReader("\xEF\xBB\xBFdata: hello\n\n"),
			expected: []parser.Field{
				{Name: parser.FieldNameData, Value: "hello"},
				{},
			},
		},
		{
			name:  "Error reader",
			input: errReader{},
			err:   errReadFailed,
		},
		{
			name:  "Incomplete final field",
			input: strings.NewReader("data: no newline after this"),
			err:   parser.ErrUnexpectedEOF,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := parser.New(tc.input)

			var fields []parser.Field
			for f := (parser.Field{}); p.Next(&f); {
				fields = append(fields, f)
			}

			require.Equal(t, tc.expected, fields)
			require.ErrorIs(t, p.Err(), tc.err)
		})
	}
}

func TestParser_Buffer(t *testing.T) {
	t.Parallel()

	long := "data: " + strings.Repeat("a", 4096) + "\n\n"

	p := parser.New(strings.NewReader(long))
	p.Buffer(nil, 64)

	var f parser.Field
	require.False(t, p.Next(&f))
	require.Error(t, p.Err(), "events longer than the buffer should fail")
}
