package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// writer is a small growable byte buffer with typed append helpers, the
// same shape as the Bolt server's encodePackStream* helpers but emitting
// a flat tag-prefixed binary format instead of PackStream markers.
type writer struct {
	buf []byte
}

func newWriter() *writer { return &writer{buf: make([]byte, 0, 256)} }

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) bl(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

// bytesField writes a length-prefixed (uint32 LE) byte slice. Used for
// both raw byte payloads and, via str(), UTF-8 strings.
func (w *writer) bytesField(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.bytesField([]byte(s)) }

func (w *writer) optBytes(b []byte) {
	if b == nil {
		w.bl(false)
		return
	}
	w.bl(true)
	w.bytesField(b)
}

func (w *writer) optU32(v *uint32) {
	if v == nil {
		w.bl(false)
		return
	}
	w.bl(true)
	w.u32(*v)
}

func (w *writer) i32slice(vs []int32) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.i32(v)
	}
}

func (w *writer) u64slice(vs []uint64) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.u64(v)
	}
}

// reader walks a byte slice with the mirror-image typed helpers.
type reader struct {
	buf []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) need(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("wire: short buffer: need %d, have %d", n, r.remaining())
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) bl() (bool, error) {
	v, err := r.u8()
	return v != 0, err
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) bytesField() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return v, nil
}

func (r *reader) str() (string, error) {
	b, err := r.bytesField()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) optBytes() ([]byte, error) {
	present, err := r.bl()
	if err != nil || !present {
		return nil, err
	}
	return r.bytesField()
}

func (r *reader) optU32() (*uint32, error) {
	present, err := r.bl()
	if err != nil || !present {
		return nil, err
	}
	v, err := r.u32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *reader) i32slice() ([]int32, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = r.i32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reader) u64slice() ([]uint64, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		if out[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
