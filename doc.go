// Package colstore provides an embedded, schema-driven columnar table
// store for Go.
//
// A colstore.Table is one logical table backed by many on-disk segments:
// a single active writable segment that accepts inserts, updates, and
// deletes, plus any number of immutable readonly segments produced by
// freezing the writable segment once it outgrows its configured size.
// Background workers migrate writable segments into readonly ones,
// merge runs of readonly segments together, and purge logically deleted
// rows out of them — all without blocking foreground readers or the
// single writer.
//
// # Quick start
//
//	ctx := context.Background()
//	bs := blobstore.NewLocalStore("./data")
//
//	row := schema.NewSchema("row", []schema.ColumnMeta{
//		{Name: "id", Type: schema.ColumnTypeUint64},
//		{Name: "name", Type: schema.ColumnTypeStrUtf8},
//	})
//	byID := schema.NewSchema("by_id", []schema.ColumnMeta{{Name: "id", Type: schema.ColumnTypeUint64}})
//	byID.SetUnique(true)
//	indexes := schema.NewSchemaSet(row)
//	_ = indexes.Add(byID)
//
//	cfg := &schema.Config{Row: row, Write: row, Indexes: indexes, UniqueIndexIDs: []int{0}}
//
//	tbl, err := colstore.Create(ctx, bs, cfg, colstore.WithLogLevel(slog.LevelInfo))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tbl.Close()
//
//	row1, _ := cfg.Row.CombineRow([][]byte{binary.LittleEndian.AppendUint64(nil, 1), []byte("alice")})
//	gid, err := tbl.InsertRow(ctx, row1)
//
// # Background compaction
//
// The WithBackgroundTasks option starts a flush queue and a compress/merge
// queue (internal/bgtask) for the table being opened; Table.Close drains
// them before returning. A table left without background tasks still
// functions correctly — Flush and MergeReadonlySegments can always be
// called synchronously — it simply never merges its segments by itself.
package colstore
