package blockstream

// Accumulator owns the raw bytes of one in-flight response that have not yet
// been consumed into a content block. It is created empty at turn start,
// grows as fragments arrive, shrinks as values are parsed off the front, and
// is never shared between turns.
//
// The zero value is ready to use. An Accumulator is not safe for concurrent
// use; the decode loop is strictly sequential.
type Accumulator struct {
	buf []byte
}

// Append extends the buffer with a newly arrived fragment.
func (a *Accumulator) Append(fragment []byte) {
	a.buf = append(a.buf, fragment...)
}

// Bytes returns the current buffer without consuming it. The returned slice
// aliases the internal buffer and is invalidated by the next Append, Consume
// or Clear.
func (a *Accumulator) Bytes() []byte {
	return a.buf
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	return len(a.buf)
}

// Consume discards the first n bytes after a successful parse. Values outside
// [0, Len()] are clamped. The remainder is copied down so a long-lived
// accumulator does not pin consumed prefixes in memory.
func (a *Accumulator) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(a.buf) {
		a.buf = a.buf[:0]
		return
	}
	a.buf = append(a.buf[:0], a.buf[n:]...)
}

// Clear empties the buffer.
func (a *Accumulator) Clear() {
	a.buf = a.buf[:0]
}
