package segment

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses each of a readonly segment's encoded files on Save and reverses
// it on Load (spec.md §4.7's freeze step (e), "atomically renaming the
// new directory into place", implies the freeze worker chooses the
// on-disk encoding at that point). The identity is a valid Codec so a
// table can opt out.
type Codec interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// NoopCodec stores the encoded files uncompressed.
type NoopCodec struct{}

func (NoopCodec) Name() string                          { return "none" }
func (NoopCodec) Compress(src []byte) ([]byte, error)   { return src, nil }
func (NoopCodec) Decompress(src []byte) ([]byte, error) { return src, nil }

// ZstdCodec compresses with zstd, favoring ratio over speed since it only
// runs once per segment at freeze/merge time, off the write hot path.
type ZstdCodec struct{}

func (ZstdCodec) Name() string { return "zstd" }

func (ZstdCodec) Compress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil), nil
}

func (ZstdCodec) Decompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(src, nil)
}

// LZ4Codec compresses with lz4, favoring decode speed for read-heavy
// tables willing to trade some ratio for faster GetValueAppend after a
// cold segment load.
type LZ4Codec struct{}

func (LZ4Codec) Name() string { return "lz4" }

func (LZ4Codec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4Codec) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CodecByName resolves a persisted codec name back to a Codec, for
// loading a segment written under a table's previously configured
// freeze codec.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "none":
		return NoopCodec{}, nil
	case "zstd":
		return ZstdCodec{}, nil
	case "lz4":
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("segment: unknown codec %q", name)
	}
}
