// Package manifest implements atomic persistence for a table's segment
// list and its per-table/per-segment meta.json schema configuration.
//
// # Overview
//
// A composite table's segment list (which segment directories currently
// make up the table, in order, plus the row-number vector that maps global
// IDs to segments) is the one piece of table state that must survive a
// crash exactly as committed: a torn update would misattribute rows to the
// wrong segment. SegList captures that state; Store publishes it using the
// same CURRENT-pointer protocol the teacher engine used for its manifest.
//
// # Binary Format
//
// Segment lists are stored compactly with integrity checking:
//
//	Header (16 bytes):
//	  Magic    (4 bytes) - 0x4c534743 ("CGSL")
//	  Version  (4 bytes) - Format version (currently 1)
//	  Checksum (4 bytes) - CRC32-IEEE of payload
//	  Length   (4 bytes) - Payload length in bytes
//
//	Payload:
//	  ID            (8 bytes) - monotonically incremented on every Save
//	  CreatedAt     (8 bytes) - Unix nanoseconds
//	  NextSegmentID (8 bytes) - next segment ID to allocate
//	  NumSegments   (4 bytes)
//	  Segments[]             - id, kind, row count, directory name
//	  NumRowNums    (4 bytes)
//	  RowNumVec[]            - len(Segments)+1 global-ID prefix sums
//
// Strings are length-prefixed (2-byte length + bytes).
//
// # Atomic Protocol
//
// Save follows a two-phase commit protocol:
//
//  1. Write the segment list to SEGLIST-NNNNNN.bin (N is the version ID).
//  2. Atomically update the CURRENT pointer file to name the new version.
//
// On local filesystems step 2 is an atomic rename (blobstore.LocalStore.Put);
// on S3/MinIO the backend's strong read-after-write consistency on
// overwrite gives the same guarantee.
//
// meta.json (SchemaConfig) is plain JSON, since it is hand-edited and
// inspected far more often than parsed on a hot path, unlike SegList.
package manifest
