package segment

import "time"

// Meta is a segment's meta.json (spec.md §4.7: "meta.json (captured
// schema, row count, creation time)"). The schema itself is not
// duplicated here — a segment is always opened with the table's already-
// loaded schema.Config, which is the schema, so meta.json only needs to
// record what varies per segment.
type Meta struct {
	RowCount  uint32    `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
	Codec     string    `json:"codec"`
}
