package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/bitmap"
	"github.com/hupe1980/colstore/internal/index"
	"github.com/hupe1980/colstore/internal/store"
	"github.com/hupe1980/colstore/schema"
)

const (
	rowsFileName        = "rows"
	removedBitsFileName = "removed.bits"
	metaFileName        = "meta.json"
)

func indexFileName(name string) string    { return "index-" + name }
func colGroupFileName(name string) string { return "colgroup-" + name }

func joinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Save persists rs into dir under bs: one store file (rows), one file per
// index, one per column group, removed.bits, and meta.json (spec.md
// §4.7). Each encoded file is compressed whole with codec before being written; codec
// is recorded in meta.json so Load can pick the matching decompressor.
func (rs *ReadonlySegment) Save(ctx context.Context, bs blobstore.BlobStore, dir string, codec Codec) error {
	if codec == nil {
		codec = NoopCodec{}
	}

	rowData, err := codec.Compress(rs.rowStore.Encode())
	if err != nil {
		return fmt.Errorf("compress rows: %w", err)
	}
	if err := bs.Put(ctx, joinDir(dir, rowsFileName), rowData); err != nil {
		return err
	}

	for i, name := range indexNames(rs.cfg.Indexes) {
		data, err := codec.Compress(rs.indexes[i].Encode())
		if err != nil {
			return fmt.Errorf("compress index %q: %w", name, err)
		}
		if err := bs.Put(ctx, joinDir(dir, indexFileName(name)), data); err != nil {
			return err
		}
	}

	for i, name := range indexNames(rs.cfg.ColGroups) {
		data, err := codec.Compress(rs.colGroups[i].Encode())
		if err != nil {
			return fmt.Errorf("compress column group %q: %w", name, err)
		}
		if err := bs.Put(ctx, joinDir(dir, colGroupFileName(name)), data); err != nil {
			return err
		}
	}

	var removedBuf bytes.Buffer
	if _, err := rs.removed.WriteTo(&removedBuf); err != nil {
		return err
	}
	if err := bs.Put(ctx, joinDir(dir, removedBitsFileName), removedBuf.Bytes()); err != nil {
		return err
	}

	meta := Meta{RowCount: rs.rowCount, Codec: codec.Name()}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return bs.Put(ctx, joinDir(dir, metaFileName), metaData)
}

// LoadReadonlySegment restores a segment previously written by Save.
func LoadReadonlySegment(ctx context.Context, bs blobstore.BlobStore, dir string, cfg *schema.Config) (*ReadonlySegment, error) {
	meta, err := readMeta(ctx, bs, dir)
	if err != nil {
		return nil, err
	}
	codec, err := CodecByName(meta.Codec)
	if err != nil {
		return nil, err
	}

	rowData, err := readCompressed(ctx, bs, joinDir(dir, rowsFileName), codec)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	rowStore, err := store.Decode(rowData, true)
	if err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	idxNames := indexNames(cfg.Indexes)
	idxSchemas := make([]*schema.Schema, len(idxNames))
	readableIdx := make([]*index.ReadableIndex, len(idxNames))
	for i, name := range idxNames {
		s := schemaByName(cfg.Indexes, name)
		idxSchemas[i] = s
		data, err := readCompressed(ctx, bs, joinDir(dir, indexFileName(name)), codec)
		if err != nil {
			return nil, fmt.Errorf("load index %q: %w", name, err)
		}
		ri, err := index.DecodeIndex(data, comparatorFor(s))
		if err != nil {
			return nil, fmt.Errorf("decode index %q: %w", name, err)
		}
		readableIdx[i] = ri
	}

	cgNames := indexNames(cfg.ColGroups)
	colGroups := make([]*store.ReadableStore, len(cgNames))
	for i, name := range cgNames {
		data, err := readCompressed(ctx, bs, joinDir(dir, colGroupFileName(name)), codec)
		if err != nil {
			return nil, fmt.Errorf("load column group %q: %w", name, err)
		}
		cg, err := store.Decode(data, false)
		if err != nil {
			return nil, fmt.Errorf("decode column group %q: %w", name, err)
		}
		colGroups[i] = cg
	}

	removed := bitmap.New()
	if b, err := bs.Open(ctx, joinDir(dir, removedBitsFileName)); err == nil {
		data, rerr := readAllBlob(ctx, b)
		b.Close()
		if rerr != nil {
			return nil, rerr
		}
		if _, err := removed.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	return &ReadonlySegment{
		cfg:        cfg,
		rowStore:   rowStore,
		indexes:    readableIdx,
		idxSchemas: idxSchemas,
		colGroups:  colGroups,
		removed:    removed,
		rowCount:   meta.RowCount,
	}, nil
}

func readMeta(ctx context.Context, bs blobstore.BlobStore, dir string) (Meta, error) {
	b, err := bs.Open(ctx, joinDir(dir, metaFileName))
	if err != nil {
		return Meta{}, err
	}
	defer b.Close()
	data, err := readAllBlob(ctx, b)
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("parse meta.json: %w", err)
	}
	return meta, nil
}

func readCompressed(ctx context.Context, bs blobstore.BlobStore, name string, codec Codec) ([]byte, error) {
	b, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	data, err := readAllBlob(ctx, b)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(data)
}

func readAllBlob(ctx context.Context, b blobstore.Blob) ([]byte, error) {
	buf := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// Save persists ws uncompressed: a writable segment is still being
// appended to, so it is written and re-read far more often than a frozen
// one, and its dumps are version-tagged self-describing formats rather
// than the byte-lex-ordered layouts freeze produces.
func (ws *WritableSegment) Save(ctx context.Context, bs blobstore.BlobStore, dir string) error {
	if err := bs.Put(ctx, joinDir(dir, rowsFileName), ws.store.WriteTo()); err != nil {
		return err
	}
	for i, name := range indexNames(ws.cfg.Indexes) {
		if err := bs.Put(ctx, joinDir(dir, indexFileName(name)), ws.indexes[i].WriteTo()); err != nil {
			return err
		}
	}
	var removedBuf bytes.Buffer
	if _, err := ws.removed.WriteTo(&removedBuf); err != nil {
		return err
	}
	if err := bs.Put(ctx, joinDir(dir, removedBitsFileName), removedBuf.Bytes()); err != nil {
		return err
	}
	meta := Meta{RowCount: uint32(ws.store.Len()), CreatedAt: ws.createdAt, Codec: "none"}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return bs.Put(ctx, joinDir(dir, metaFileName), metaData)
}

// LoadWritableSegment restores a writable segment previously written by
// Save, e.g. reopening a table after a crash mid-write.
func LoadWritableSegment(ctx context.Context, bs blobstore.BlobStore, dir string, cfg *schema.Config) (*WritableSegment, error) {
	meta, err := readMeta(ctx, bs, dir)
	if err != nil {
		return nil, err
	}

	b, err := bs.Open(ctx, joinDir(dir, rowsFileName))
	if err != nil {
		return nil, err
	}
	rowData, err := readAllBlob(ctx, b)
	b.Close()
	if err != nil {
		return nil, err
	}
	st, err := store.ReadWritable(rowData)
	if err != nil {
		return nil, fmt.Errorf("decode writable rows: %w", err)
	}

	names := indexNames(cfg.Indexes)
	idxSchemas := make([]*schema.Schema, len(names))
	idxCmp := make([]index.Comparator, len(names))
	indexes := make([]*index.WritableIndex, len(names))
	for i, name := range names {
		s := schemaByName(cfg.Indexes, name)
		idxSchemas[i] = s
		idxCmp[i] = comparatorFor(s)

		b, err := bs.Open(ctx, joinDir(dir, indexFileName(name)))
		if err != nil {
			return nil, err
		}
		data, err := readAllBlob(ctx, b)
		b.Close()
		if err != nil {
			return nil, err
		}
		wi, err := index.ReadWritable(data, idxCmp[i])
		if err != nil {
			return nil, fmt.Errorf("decode writable index %q: %w", name, err)
		}
		indexes[i] = wi
	}

	removed := bitmap.New()
	if b, err := bs.Open(ctx, joinDir(dir, removedBitsFileName)); err == nil {
		data, rerr := readAllBlob(ctx, b)
		b.Close()
		if rerr != nil {
			return nil, rerr
		}
		if _, err := removed.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	return &WritableSegment{
		cfg:        cfg,
		store:      st,
		indexes:    indexes,
		idxSchemas: idxSchemas,
		idxCmp:     idxCmp,
		removed:    removed,
		createdAt:  meta.CreatedAt,
	}, nil
}
