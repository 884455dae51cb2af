package segment

import (
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/schema"
)

// comparatorFor adapts an index's key schema into an index.Comparator.
// Keys passed to it always originate from s.SelectParentRow against a
// compiled row, so a CompareData error here indicates a corrupt key, not
// a reachable runtime condition — it panics rather than threading an
// error through every ordered-container call site.
func comparatorFor(s *schema.Schema) index.Comparator {
	return func(a, b []byte) int {
		c, err := s.CompareData(a, b)
		if err != nil {
			panic(err)
		}
		return c
	}
}
