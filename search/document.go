package search

// Document is the capability a record type implements to be mirrored
// into the full-text index. The synchronizer only ever sees records
// through this interface.
type Document interface {
	// SearchKind names the index the document belongs to, e.g. "post".
	SearchKind() string
	// SearchID is the record's identity in the system of record.
	SearchID() uint
	// SearchFields returns the fields mirrored into the index.
	SearchFields() map[string]interface{}
}
