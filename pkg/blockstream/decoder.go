// Package blockstream provides an incremental decoder for unframed streams
// of typed content blocks. This file implements the decoder itself: the
// retry-parse loop that turns an arbitrarily fragmented byte stream into an
// ordered sequence of Blocks.
package blockstream

import (
	"bytes"
	"encoding/json"
)

// Sink receives the decoder's output in stream order. Calls happen
// synchronously on the goroutine driving Feed and Finish: one Block call per
// decoded value, one Warning call per skipped value (always a *BlockError).
type Sink interface {
	// Block delivers one decoded content block.
	Block(b Block)

	// Warning reports a block-level condition: the offending value was
	// skipped and decoding continues.
	Warning(err error)
}

// SinkFuncs adapts plain functions to the Sink interface. Nil fields are
// no-ops, so callers can subscribe to blocks without handling warnings.
type SinkFuncs struct {
	OnBlock   func(b Block)
	OnWarning func(err error)
}

// Block implements Sink.
func (s SinkFuncs) Block(b Block) {
	if s.OnBlock != nil {
		s.OnBlock(b)
	}
}

// Warning implements Sink.
func (s SinkFuncs) Warning(err error) {
	if s.OnWarning != nil {
		s.OnWarning(err)
	}
}

// Decoder turns one response byte stream into ordered content blocks. The
// wire format is standard JSON objects concatenated back-to-back with no
// separator, so the only way to find a value boundary is to attempt a parse:
// after every fragment the decoder re-parses the front of the accumulated
// buffer and strips off as many complete values as it finds. A parse failure
// is not an error while the stream is open; the bytes may be a prefix of a
// value still arriving, so the buffer is kept unchanged until more data or
// end-of-stream decides the question.
//
// A Decoder is bound to a single turn: create one per response, Feed it every
// fragment in arrival order, and call Finish exactly once when the transport
// signals end-of-stream. It is not safe for concurrent use.
type Decoder struct {
	acc      Accumulator
	sink     Sink
	seen     int // values parsed off the stream, including skipped ones
	emitted  int
	finished bool
}

// NewDecoder creates a decoder delivering to sink. A nil sink discards
// blocks and warnings, which is occasionally useful in tests.
func NewDecoder(sink Sink) *Decoder {
	if sink == nil {
		sink = SinkFuncs{}
	}
	return &Decoder{sink: sink}
}

// Feed appends one transport fragment and decodes every complete value the
// buffer now holds, in order. Fragment boundaries carry no meaning: any
// partition of the stream, down to one byte per call, produces the same
// blocks. Returns ErrDecoderFinished if called after Finish.
func (d *Decoder) Feed(fragment []byte) error {
	if d.finished {
		return ErrDecoderFinished
	}
	d.acc.Append(fragment)
	d.drain()
	return nil
}

// Finish signals end-of-stream. Any residual bytes get one final decode
// pass; if a non-whitespace residue still fails to parse the stream was cut
// mid-value and a *TruncatedError is returned. Blocks emitted earlier remain
// valid either way. The buffer is released. Returns ErrDecoderFinished on a
// second call.
func (d *Decoder) Finish() error {
	if d.finished {
		return ErrDecoderFinished
	}
	d.finished = true
	d.drain()

	residue := len(bytes.TrimSpace(d.acc.Bytes()))
	d.acc.Clear()
	if residue > 0 {
		return &TruncatedError{Bytes: residue, Blocks: d.emitted}
	}
	return nil
}

// BlockCount returns the number of blocks delivered to the sink so far.
func (d *Decoder) BlockCount() int {
	return d.emitted
}

// Buffered returns the number of bytes awaiting a complete value.
func (d *Decoder) Buffered() int {
	return d.acc.Len()
}

// drain parses complete values off the front of the buffer until the
// remainder is empty or fails to parse. Each successful parse consumes
// exactly the value's bytes; the first failure leaves the remainder intact
// for the next fragment.
func (d *Decoder) drain() {
	for {
		d.skipSpace()
		buf := d.acc.Bytes()
		if len(buf) == 0 {
			return
		}

		dec := json.NewDecoder(bytes.NewReader(buf))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// Incomplete prefix of the next value; wait for more bytes.
			return
		}
		d.acc.Consume(int(dec.InputOffset()))
		d.dispatch(raw)
	}
}

// dispatch converts one parsed value and hands the result to the sink.
func (d *Decoder) dispatch(raw []byte) {
	index := d.seen
	d.seen++

	block, err := DecodeBlock(raw, index)
	if err != nil {
		d.sink.Warning(err)
		return
	}
	d.emitted++
	d.sink.Block(block)
}

// skipSpace consumes insignificant whitespace between values so trailing
// newlines from the backend never count as truncation residue.
func (d *Decoder) skipSpace() {
	buf := d.acc.Bytes()
	i := 0
	for i < len(buf) && isJSONSpace(buf[i]) {
		i++
	}
	if i > 0 {
		d.acc.Consume(i)
	}
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
