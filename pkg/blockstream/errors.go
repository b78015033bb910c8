// Package blockstream provides an incremental decoder for unframed streams
// of typed content blocks. This file defines the decode-level error types:
// block-level conditions that skip a single value, and the stream-level
// truncation condition reported at end of stream.
package blockstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for decode-level conditions.
var (
	// ErrMalformedBlock is matched by block-level errors: a value that parsed
	// as JSON but could not be converted into a content block.
	ErrMalformedBlock = errors.New("malformed content block")

	// ErrTruncatedStream is matched by the error returned from Finish when
	// the stream ended with bytes that never completed a JSON value.
	ErrTruncatedStream = errors.New("stream truncated mid-value")

	// ErrDecoderFinished is returned when Feed or Finish is called on a
	// decoder whose stream has already been finished.
	ErrDecoderFinished = errors.New("decoder already finished")
)

// BlockError describes a single skipped value: it parsed as JSON but had an
// unknown or missing type, a missing or mistyped content field, or image
// content that failed base64 decoding. The surrounding stream continues.
type BlockError struct {
	// Index is the zero-based position of the value in the stream, counting
	// every parsed value including previously skipped ones.
	Index int

	// BlockType is the wire discriminator the value carried, or "" when the
	// type field was absent or the value was not an object.
	BlockType string

	// Reason is a human-readable description of what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *BlockError) Error() string {
	if e.BlockType != "" {
		return fmt.Sprintf("block %d (type %q): %s", e.Index, e.BlockType, e.Reason)
	}
	return fmt.Sprintf("block %d: %s", e.Index, e.Reason)
}

// Is allows matching against ErrMalformedBlock with errors.Is.
func (e *BlockError) Is(target error) bool {
	if target == ErrMalformedBlock {
		return true
	}
	_, ok := target.(*BlockError)
	return ok
}

// TruncatedError reports that the transport signalled end-of-stream while the
// accumulator still held bytes that did not complete a JSON value. The bytes
// are dropped; blocks decoded earlier in the same stream remain valid.
type TruncatedError struct {
	// Bytes is the number of undecodable bytes discarded.
	Bytes int

	// Blocks is the number of blocks successfully emitted before truncation.
	Blocks int
}

// Error implements the error interface.
func (e *TruncatedError) Error() string {
	return fmt.Sprintf("stream ended with %d undecodable bytes after %d blocks", e.Bytes, e.Blocks)
}

// Is allows matching against ErrTruncatedStream with errors.Is.
func (e *TruncatedError) Is(target error) bool {
	if target == ErrTruncatedStream {
		return true
	}
	_, ok := target.(*TruncatedError)
	return ok
}

// IsMalformedBlock checks whether err is a block-level decode error.
func IsMalformedBlock(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedBlock) {
		return true
	}
	var blockErr *BlockError
	return errors.As(err, &blockErr)
}

// IsTruncated checks whether err reports a truncated stream.
func IsTruncated(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTruncatedStream) {
		return true
	}
	var truncErr *TruncatedError
	return errors.As(err, &truncErr)
}
