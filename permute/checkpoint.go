package permute

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/blobstore"
	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/hash"
	"github.com/hupe1980/colcluster/resource"
)

// Checkpoint writes finished output rows to a blob store while a
// permutation is applied.
//
// In Gather direction a segment is written every Every completed output
// rows. In Scatter direction the output is only complete at the end, so
// all segments are written then. Every <= 0 writes one segment per column.
type Checkpoint struct {
	Every       int
	Sink        blobstore.BlobStore
	Compression Compression
	// Name prefixes every segment blob name.
	Name string
}

// ErrCorruptSegment is returned by LoadSegment for blobs that fail header
// or checksum validation.
var ErrCorruptSegment = errors.New("corrupt checkpoint segment")

const (
	segmentMagic   = "CCSG"
	segmentVersion = 2
	headerSize     = 44

	flagHashes = 1 << 0
)

// SegmentName returns the blob name of segment seq of column name.
func SegmentName(prefix, name string, seq int) string {
	return path.Join(prefix, name, fmt.Sprintf("%08d.seg", seq))
}

type checkpointer struct {
	ctx  context.Context
	cfg  *Checkpoint
	rc   *resource.Controller
	name string
	seq  int
}

func newCheckpointer(ctx context.Context, cfg *Checkpoint, rc *resource.Controller, name string) *checkpointer {
	if cfg == nil || cfg.Sink == nil {
		return nil
	}
	return &checkpointer{ctx: ctx, cfg: cfg, rc: rc, name: name}
}

// every returns the number of output rows per segment; always positive.
func (c *checkpointer) every(n int) int {
	if c != nil && c.cfg.Every > 0 {
		return c.cfg.Every
	}
	return max(n, 1)
}

func (c *checkpointer) segments() int {
	if c == nil {
		return 0
	}
	return c.seq
}

func (c *checkpointer) flushAll(col column.Column) error {
	if c == nil {
		return nil
	}
	n := col.Len()
	for lo := 0; lo < n; lo += c.every(n) {
		if err := c.flush(col, lo, min(lo+c.every(n), n)); err != nil {
			return err
		}
	}
	return nil
}

// flush writes rows [lo,hi) of col as the next segment.
func (c *checkpointer) flush(col column.Column, lo, hi int) error {
	if c == nil || lo >= hi {
		return nil
	}

	raw, flags, err := encodeRows(col, lo, hi)
	if err != nil {
		return err
	}
	payload, codec, err := compress(raw, c.cfg.Compression)
	if err != nil {
		return err
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], segmentMagic)
	hdr[4] = segmentVersion
	hdr[5] = byte(codec)
	hdr[6] = byte(col.Kind())
	hdr[7] = flags
	binary.LittleEndian.PutUint64(hdr[8:], uint64(lo))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(hi-lo))
	binary.LittleEndian.PutUint64(hdr[24:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(hdr[32:], uint64(len(payload)))
	binary.LittleEndian.PutUint32(hdr[40:], segmentChecksum(hdr[:40], payload))

	name := SegmentName(c.cfg.Name, c.name, c.seq)
	w, err := c.cfg.Sink.Create(c.ctx, name)
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	rw := resource.NewRateLimitedWriter(c.ctx, w, c.rc)
	if _, err := rw.Write(hdr[:]); err != nil {
		_ = w.Abort()
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	if _, err := rw.Write(payload); err != nil {
		_ = w.Abort()
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Abort()
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("checkpoint %s: %w", name, err)
	}
	c.seq++
	return nil
}

// encodeRows lays out rows [lo,hi) as
//
//	nullsLen uint32 | nulls (roaring, row ids relative to lo) | values
//
// where values are the raw elements of fixed-width columns, or uvarint
// length prefixed bytes followed by the row hashes for variable-width ones.
func encodeRows(col column.Column, lo, hi int) ([]byte, byte, error) {
	var buf bytes.Buffer

	var nulls []byte
	if bm := col.Nulls(); bm != nil {
		rel := roaring.New()
		for i := lo; i < hi; i++ {
			if bm.Contains(uint32(i)) {
				rel.Add(uint32(i - lo))
			}
		}
		if !rel.IsEmpty() {
			b, err := rel.ToBytes()
			if err != nil {
				return nil, 0, err
			}
			nulls = b
		}
	}
	var n4 [4]byte
	binary.LittleEndian.PutUint32(n4[:], uint32(len(nulls)))
	buf.Write(n4[:])
	buf.Write(nulls)

	var flags byte
	switch c := col.(type) {
	case column.FixedWidth:
		w := c.Width()
		buf.Write(c.Raw()[lo*w : hi*w])
	case *column.Varlen:
		var v [binary.MaxVarintLen64]byte
		for i := lo; i < hi; i++ {
			b := c.At(i)
			buf.Write(v[:binary.PutUvarint(v[:], uint64(len(b)))])
			buf.Write(b)
		}
		if c.HasHashes() {
			flags |= flagHashes
			var h8 [8]byte
			for i := lo; i < hi; i++ {
				h, _ := c.RowHash(i)
				binary.LittleEndian.PutUint64(h8[:], h)
				buf.Write(h8[:])
			}
		}
	default:
		return nil, 0, fmt.Errorf("cannot checkpoint %T", col)
	}
	return buf.Bytes(), flags, nil
}

// Segment is a decoded checkpoint segment.
type Segment struct {
	Kind        column.Kind
	Compression Compression
	FirstRow    uint64
	Rows        uint64
	// Column holds the rows of the segment, renumbered from zero.
	Column column.Column
}

// LoadSegment reads and validates the named segment from store.
func LoadSegment(ctx context.Context, store blobstore.BlobStore, name string) (*Segment, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return decodeSegment(data)
}

// segmentChecksum covers the header fields in front of the checksum and
// the payload.
func segmentChecksum(hdr, payload []byte) uint32 {
	h := hash.NewCRC32C()
	_, _ = h.Write(hdr)
	_, _ = h.Write(payload)
	return h.Sum32()
}

func decodeSegment(data []byte) (*Segment, error) {
	if len(data) < headerSize || string(data[0:4]) != segmentMagic {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptSegment)
	}
	if data[4] != segmentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSegment, data[4])
	}
	payload := data[headerSize:]
	if segmentChecksum(data[:40], payload) != binary.LittleEndian.Uint32(data[40:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSegment)
	}

	seg := &Segment{
		Compression: Compression(data[5]),
		Kind:        column.Kind(data[6]),
		FirstRow:    binary.LittleEndian.Uint64(data[8:]),
		Rows:        binary.LittleEndian.Uint64(data[16:]),
	}
	flags := data[7]
	rawLen := binary.LittleEndian.Uint64(data[24:])
	storedLen := binary.LittleEndian.Uint64(data[32:])

	if uint64(len(payload)) != storedLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorruptSegment, len(payload), storedLen)
	}
	if seg.Rows > column.MaxRows || rawLen > maxRawLen(seg.Compression, storedLen) {
		return nil, fmt.Errorf("%w: %d rows in %d bytes do not fit a %d byte payload", ErrCorruptSegment, seg.Rows, rawLen, storedLen)
	}

	raw, err := decompress(payload, seg.Compression, int(rawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSegment, err)
	}
	if uint64(len(raw)) != rawLen {
		return nil, fmt.Errorf("%w: decoded %d bytes, header says %d", ErrCorruptSegment, len(raw), rawLen)
	}

	col, err := decodeRows(raw, seg.Kind, flags, int(seg.Rows))
	if err != nil {
		return nil, err
	}
	seg.Column = col
	return seg, nil
}

func decodeRows(raw []byte, kind column.Kind, flags byte, rows int) (column.Column, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptSegment)
	}
	nl := int(binary.LittleEndian.Uint32(raw))
	raw = raw[4:]
	if len(raw) < nl {
		return nil, fmt.Errorf("%w: truncated null bitmap", ErrCorruptSegment)
	}
	var nulls *roaring.Bitmap
	if nl > 0 {
		nulls = roaring.New()
		if err := nulls.UnmarshalBinary(raw[:nl]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptSegment, err)
		}
	}
	raw = raw[nl:]

	var col column.Column
	switch kind {
	case column.KindInt8:
		col = fixedFrom[int8](raw, rows)
	case column.KindInt16:
		col = fixedFrom[int16](raw, rows)
	case column.KindInt32:
		col = fixedFrom[int32](raw, rows)
	case column.KindInt64:
		col = fixedFrom[int64](raw, rows)
	case column.KindUint8:
		col = fixedFrom[uint8](raw, rows)
	case column.KindUint16:
		col = fixedFrom[uint16](raw, rows)
	case column.KindUint32:
		col = fixedFrom[uint32](raw, rows)
	case column.KindUint64:
		col = fixedFrom[uint64](raw, rows)
	case column.KindFloat32:
		col = fixedFrom[float32](raw, rows)
	case column.KindFloat64:
		col = fixedFrom[float64](raw, rows)
	case column.KindVarlen:
		v, err := varlenFrom(raw, flags, rows)
		if err != nil {
			return nil, err
		}
		v.SetNulls(nulls)
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrCorruptSegment, kind)
	}
	if col == nil {
		return nil, fmt.Errorf("%w: %d value bytes for %d %s rows", ErrCorruptSegment, len(raw), rows, kind)
	}
	col.(column.FixedWidth).SetNulls(nulls)
	return col, nil
}

// fixedFrom copies rows elements out of raw. It returns nil when raw has
// the wrong size.
func fixedFrom[T column.Elem](raw []byte, rows int) column.Column {
	size := int(unsafe.Sizeof(*new(T)))
	if len(raw)%size != 0 || len(raw)/size != rows {
		return nil
	}
	vals := make([]T, rows)
	if rows > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(raw)), raw)
	}
	return column.NewFixed(vals)
}

func varlenFrom(raw []byte, flags byte, rows int) (*column.Varlen, error) {
	withHashes := flags&flagHashes != 0
	// every row takes at least its one byte length prefix
	if rows > len(raw) {
		return nil, fmt.Errorf("%w: %d rows in %d bytes", ErrCorruptSegment, rows, len(raw))
	}
	vals := make([][]byte, rows)
	for i := range rows {
		l, n := binary.Uvarint(raw)
		if n <= 0 || uint64(len(raw)-n) < l {
			return nil, fmt.Errorf("%w: truncated row %d", ErrCorruptSegment, i)
		}
		vals[i] = raw[n : n+int(l)]
		raw = raw[n+int(l):]
	}

	out := column.NewVarlen(withHashes)
	if withHashes && len(raw) != 8*rows {
		return nil, fmt.Errorf("%w: %d hash bytes for %d rows", ErrCorruptSegment, len(raw), rows)
	}
	for i, b := range vals {
		var h uint64
		if withHashes {
			h = binary.LittleEndian.Uint64(raw[8*i:])
		}
		out.AppendHashed(b, h)
	}
	return out, nil
}
