package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/activeledger/active-sse-go/internal/parser"
)

func TestFieldParser(t *testing.T) {
	t.Parallel()

	type testCase struct {
		err      error
		name     string
		data     string
		expected []parser.Field
	}

	tests := []testCase{
		{
			name: "Normal data",
			data: "event: activity\ndata:some data\n: comment\ndata:  more data  \r\n\n",
			expected: []parser.Field{
				{Name: parser.FieldNameEvent, Value: "activity"},
				{Name: parser.FieldNameData, Value: "some data"},
				{Name: parser.FieldNameData, Value: " more data  "},
				{},
			},
		},
		{
			name: "Normal data but no newline at the end",
			data: ":comment\r: another comment\ndata: whatever",
			err:  parser.ErrUnexpectedEOF,
		},
		{
			name: "Fields without data",
			data: "data\ndata  \ndata:\n\n",
			expected: []parser.Field{
				{Name: parser.FieldNameData},
				// `data  ` is not a valid field name, so it is skipped.
				{Name: parser.FieldNameData},
				{},
			},
		},
		{
			name: "Invalid fields",
			data: "i'm an invalid field:\nlmao me too\nretry: 120\nid: 5\r\n\r\n",
			expected: []parser.Field{
				{Name: parser.FieldNameRetry, Value: "120"},
				{Name: parser.FieldNameID, Value: "5"},
				{},
			},
		},
		{
			name: "Normal data, only one newline at the end",
			data: "data: first chunk\ndata: second chunk\r\n",
			expected: []parser.Field{
				{Name: parser.FieldNameData, Value: "first chunk"},
				{Name: parser.FieldNameData, Value: "second chunk"},
			},
		},
		{
			name: "Comments only",
			data: ": comm\r\n:other comm\n\n",
			expected: []parser.Field{
				{},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := parser.NewFieldParser(tc.data)

			var fields []parser.Field
			for f := (parser.Field{}); p.Next(&f); {
				fields = append(fields, f)
			}

			require.Equal(t, tc.expected, fields)
			require.ErrorIs(t, p.Err(), tc.err)
		})
	}
}

func TestFieldParser_BOM(t *testing.T) {
	t.Parallel()

	p := parser.NewFieldParser("\xEF\xBB\xBFdata: hello\n\n")
	p.RemoveBOM(true)

	var f parser.Field
	require.True(t, p.Next(&f))
	require.Equal(t, parser.Field{Name: parser.FieldNameData, Value: "hello"}, f)

	// Without removal, the BOM makes the field name invalid.
	p.Reset("\xEF\xBB\xBFdata: hello\n\n")

	require.True(t, p.Next(&f))
	require.Equal(t, parser.Field{}, f, "BOM-prefixed field should be skipped")
}

func TestFieldParser_Reset(t *testing.T) {
	t.Parallel()

	p := parser.NewFieldParser("data: without newline")

	var f parser.Field
	require.False(t, p.Next(&f))
	require.ErrorIs(t, p.Err(), parser.ErrUnexpectedEOF)

	p.Reset("data: complete\n")

	require.NoError(t, p.Err(), "Reset should clear the error")
	require.True(t, p.Next(&f))
	require.Equal(t, "complete", f.Value)
}
