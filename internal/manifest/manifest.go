package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/model"
)

const (
	// SegListFileName is the versioned segment-list blob name prefix.
	SegListFileName = "SEGLIST"
	// CurrentFileName points at the currently-published segment-list version.
	CurrentFileName = "CURRENT"
	// CurrentVersion is the version of the segment-list binary format.
	CurrentVersion = 1
)

// SegmentKind mirrors a segment's on-disk directory prefix (spec.md §6):
// wr-<idx> for the writable segment, rd-<idx> for a readonly segment.
type SegmentKind uint8

const (
	SegmentWritable SegmentKind = iota
	SegmentReadonly
)

// SegmentEntry is one row of the table's published segment list: enough to
// open the segment's directory and place it in rowNumVec without having to
// re-enumerate the table directory on every open.
type SegmentEntry struct {
	ID       model.SegmentID `json:"id"`
	Kind     SegmentKind     `json:"kind"`
	Dir      string          `json:"dir"`       // relative to the table directory
	RowCount uint32          `json:"row_count"` // rows at time of publish; writable grows past this
}

// SegList is the atomically-published record of a table's segment list and
// row-number vector. It is the table-level analogue of spec.md's per-segment
// meta.json: where a segment's meta.json captures that segment's schema and
// row count, SegList captures which segments currently make up the table and
// in what order, so a reopen doesn't need to trust directory listing order.
type SegList struct {
	Version       int             `json:"version"`
	ID            uint64          `json:"id"` // monotonically incremented on every Save
	CreatedAt     time.Time       `json:"created_at"`
	NextSegmentID model.SegmentID `json:"next_segment_id"`
	Segments      []SegmentEntry  `json:"segments"`
	// RowNumVec has len(Segments)+1 entries; RowNumVec[i] is the first
	// global ID served by Segments[i].
	RowNumVec []uint64 `json:"row_num_vec"`
}

// New returns an empty SegList for a freshly-created table.
func New() *SegList {
	return &SegList{
		Version:       CurrentVersion,
		NextSegmentID: 1,
		RowNumVec:     []uint64{0},
	}
}

// Store manages the SEGLIST-NNNNNN.bin files and the CURRENT pointer that
// names the active one. Save follows the same two-phase protocol as the
// teacher's engine manifest: write the new version, then atomically
// repoint CURRENT at it.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new segment-list store backed by store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load loads the currently-published segment list.
func (s *Store) Load(ctx context.Context) (*SegList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.Open(ctx, CurrentFileName)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	name, err := readAll(ctx, b)
	b.Close()
	if err != nil {
		return nil, err
	}

	b, err = s.store.Open(ctx, string(name))
	if err != nil {
		return nil, fmt.Errorf("open segment list %s: %w", name, err)
	}
	defer b.Close()

	payload, err := readAll(ctx, b)
	if err != nil {
		return nil, err
	}
	return ReadBinary(payload)
}

// Save atomically publishes a new segment list. Callers must hold the
// table's write lock across the structural change this records.
func (s *Store) Save(ctx context.Context, sl *SegList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl.Version = CurrentVersion
	sl.ID++
	sl.CreatedAt = time.Now()

	filename := fmt.Sprintf("%s-%06d.bin", SegListFileName, sl.ID)

	var buf bytes.Buffer
	if err := WriteBinary(&buf, sl); err != nil {
		return err
	}
	if err := s.store.Put(ctx, filename, buf.Bytes()); err != nil {
		return err
	}
	// Local: atomic rename. S3/MinIO: strong read-after-write consistency
	// on overwrite. Either way CURRENT never points at a partial write.
	return s.store.Put(ctx, CurrentFileName, []byte(filename))
}

func readAll(ctx context.Context, b blobstore.Blob) ([]byte, error) {
	buf := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// SchemaConfig is the table-level meta.json: the compiled schema config
// named in spec.md §6. It is plain JSON, unlike the segment-list's binary
// format, since it is hand-edited/inspected far more often than it is
// parsed on a hot path.
type SchemaConfig struct {
	TableClass string                 `json:"table_class"`
	Columns    []json.RawMessage      `json:"columns"`
	Indexes    []json.RawMessage      `json:"indexes"`
	ColGroups  []json.RawMessage      `json:"column_groups"`
	Tuning     TuningConfig           `json:"tuning"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// TuningConfig holds the tuning knobs spec.md §6 requires in meta.json.
type TuningConfig struct {
	MaxWritingSegmentSize  int64   `json:"max_writing_segment_size"`
	MinMergeSegNum         int     `json:"min_merge_seg_num"`
	PurgeDeleteThreshold   float64 `json:"purge_delete_threshold"`
	CompressingWorkMemSize int64   `json:"compressing_work_mem_size"`
}

// LoadSchemaConfig reads and parses a table's meta.json.
func LoadSchemaConfig(ctx context.Context, store blobstore.BlobStore, name string) (*SchemaConfig, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := readAll(ctx, b)
	if err != nil {
		return nil, err
	}
	cfg := &SchemaConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse meta.json: %w", err)
	}
	return cfg, nil
}

// SaveSchemaConfig writes a table's meta.json.
func SaveSchemaConfig(ctx context.Context, store blobstore.BlobStore, name string, cfg *SchemaConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}
