// Package bitmap implements the segment-local removed-rows set (the
// on-disk removed.bits file) that every segment variant consults on its
// read path to hide logically-deleted rows.
//
// # Format
//
// removed.bits is the Roaring portable serialization of the set of removed
// local IDs. Roaring's container model (array/bitmap/run containers chosen
// per chunk) keeps both the sparse case (few deletes) and the dense case
// (a segment nearing its purgeDeleteThreshold) compact, without a format
// change between them.
//
// # Usage
//
//	rs := bitmap.New()
//	rs.Mark(localID)
//	if rs.IsRemoved(localID) { ... }
//	if rs.Fraction(rowCount) >= purgeDeleteThreshold { /* eligible for purge */ }
package bitmap
