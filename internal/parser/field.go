package parser

// FieldName is the name of a field in the SSE wire format.
type FieldName string

// A Field represents a single field of an event, as read from the wire.
type Field struct {
	Name  FieldName
	Value string
}

const (
	FieldNameData  = FieldName("data")
	FieldNameEvent = FieldName("event")
	FieldNameRetry = FieldName("retry")
	FieldNameID    = FieldName("id")

	maxFieldNameLength = 5
)

func getFieldName(b string) (FieldName, bool) {
	switch FieldName(b) {
	case FieldNameData:
		return FieldNameData, true
	case FieldNameEvent:
		return FieldNameEvent, true
	case FieldNameRetry:
		return FieldNameRetry, true
	case FieldNameID:
		return FieldNameID, true
	default:
		return "", false
	}
}
