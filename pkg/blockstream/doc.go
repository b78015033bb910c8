// Package blockstream decodes an unframed stream of typed content blocks as
// it arrives, emitting each block as soon as its bytes are complete.
//
// # Overview
//
// The package consumes the body of a still-open HTTP response carrying
// standard JSON objects concatenated back-to-back with no framing: no length
// prefixes, no delimiters, no newline separators, no enclosing array. At any
// instant the buffered bytes may hold zero, one, or several complete values,
// or end in the middle of one, and the only way to know is to try to parse.
//
// The core types:
//
//   - Block: the decoded unit, a sealed union of Text and Image
//   - Accumulator: owns the undecoded bytes of one in-flight response
//   - Decoder: the retry-parse loop turning fragments into ordered Blocks
//   - Sink: the ordered callback receiving blocks and block-level warnings
//
// # Wire Format
//
// Each value on the stream is a JSON object of one of two shapes:
//
//	{"type": "text", "content": "<markdown string>"}
//	{"type": "image", "content": "<base64 string>", "alt_text": "<optional>"}
//
// Image content is decoded from base64 before delivery; alt_text defaults to
// "Generated Image" when absent or empty.
//
// # Quick Start
//
// Create a decoder per response, feed it fragments as they arrive, and
// finish it at end-of-stream:
//
//	dec := blockstream.NewDecoder(blockstream.SinkFuncs{
//	    OnBlock:   func(b blockstream.Block) { render(b) },
//	    OnWarning: func(err error) { log(err) },
//	})
//
//	for fragment := range fragments {
//	    if err := dec.Feed(fragment); err != nil {
//	        break
//	    }
//	}
//	if err := dec.Finish(); err != nil {
//	    // Truncated stream: earlier blocks remain valid.
//	}
//
// # Incremental Decoding
//
// Three conditions are deliberately kept apart:
//
//   - Incomplete data is not an error. A parse failure while the stream is
//     open means the buffer ends inside a value; the decoder keeps the bytes
//     and waits. No partial-value introspection is attempted.
//   - A malformed block is a value that parsed as JSON but could not become
//     a Block (unknown or missing type, bad content, invalid base64). It is
//     reported through Sink.Warning as a *BlockError and skipped; decoding
//     of subsequent values continues.
//   - A truncated stream is detected only at Finish: end-of-stream arrived
//     with residual bytes that never completed a value. Finish returns a
//     *TruncatedError, the residue is dropped, and every block already
//     emitted stands.
//
// Fragment boundaries never change the result: any partition of the byte
// sequence, down to one byte per Feed, yields the same ordered block list.
//
// # Error Handling
//
// Match conditions with errors.Is against the sentinels:
//
//	if errors.Is(err, blockstream.ErrTruncatedStream) { ... }
//	if errors.Is(err, blockstream.ErrMalformedBlock) { ... }
//
// or use the IsTruncated and IsMalformedBlock helpers. The concrete types
// *TruncatedError and *BlockError carry byte and index detail.
//
// # Thread Safety
//
// A Decoder is confined to one goroutine; fragments of one response are
// processed strictly sequentially and Sink methods are invoked synchronously
// from Feed and Finish. Separate responses use separate Decoders and share
// nothing.
package blockstream
