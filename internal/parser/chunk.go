package parser

// isNewlineChar returns whether the given character is '\n' or '\r'.
func isNewlineChar(b byte) bool {
	return b == '\n' || b == '\r'
}

// NewlineIndex returns the index of the first occurrence of a newline sequence
// (\n, \r, or \r\n). It also returns the sequence's length. If no sequence is
// found, index is equal to len(s) and length is 0.
func NewlineIndex(s string) (index, length int) {
	for l := len(s); index < l; index++ {
		b := s[index]

		if isNewlineChar(b) {
			length++
			if b == '\r' && index < l-1 && s[index+1] == '\n' {
				length++
			}

			break
		}
	}

	return
}

// A Chunk of data that may or may not end in a newline.
//
// The newline is defined in the Event Stream standard's documentation:
// https://html.spec.whatwg.org/multipage/server-sent-events.html#server-sent-events
type Chunk struct {
	Data string
	// Whether the Data ends with a newline sequence or not.
	HasNewline bool
}

// NextChunk retrieves the next Chunk of data from the given string
// along with the data remaining after the returned Chunk.
// If the returned chunk is the last one, len(remaining) will be 0.
func NextChunk(s string) (Chunk, string) {
	index, length := NewlineIndex(s)
	if length == 0 {
		return Chunk{Data: s}, ""
	}
	end := index + length
	return Chunk{Data: s[:end], HasNewline: true}, s[end:]
}
