// Package blockstream provides an incremental decoder for unframed streams
// of typed content blocks. This file defines the Block variants and their
// wire-format JSON codec.
package blockstream

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Wire discriminator values for the "type" field of a content block.
const (
	// TypeText marks a markdown text block.
	TypeText = "text"

	// TypeImage marks a base64-encoded image block.
	TypeImage = "image"
)

// DefaultAltText is substituted when an image block arrives without an
// alt_text field, or with an empty one.
const DefaultAltText = "Generated Image"

// Block is one decoded unit of assistant output: markdown text or an image.
// The interface is sealed; Text and Image are the only implementations, so a
// type switch over Block is exhaustive.
type Block interface {
	// BlockType returns the wire discriminator, TypeText or TypeImage.
	BlockType() string

	sealed()
}

// Text is a markdown-formatted text block. Content is carried verbatim from
// the wire; rendering is the consumer's concern.
type Text struct {
	Content string
}

// BlockType returns TypeText.
func (Text) BlockType() string { return TypeText }

func (Text) sealed() {}

// Image is a decoded image block. Data holds the raw image bytes (the wire
// carries them base64-encoded inside a JSON string). AltText is never empty;
// it falls back to DefaultAltText during decoding.
type Image struct {
	Data    []byte
	AltText string
}

// BlockType returns TypeImage.
func (Image) BlockType() string { return TypeImage }

func (Image) sealed() {}

// wireBlock is the backend's JSON shape for a single content block.
type wireBlock struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	AltText string `json:"alt_text,omitempty"`
}

// MarshalJSON encodes the block in the backend wire shape.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBlock{Type: TypeText, Content: t.Content})
}

// MarshalJSON encodes the block in the backend wire shape, re-encoding the
// image bytes as base64.
func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBlock{
		Type:    TypeImage,
		Content: base64.StdEncoding.EncodeToString(i.Data),
		AltText: i.AltText,
	})
}

// Blocks is an ordered list of content blocks. It round-trips through JSON in
// the same vocabulary the backend speaks: an array of wire-shaped objects.
type Blocks []Block

// UnmarshalJSON decodes an array of wire-shaped block objects. Unlike the
// streaming decoder, a malformed element here is a hard error: persisted
// block lists are written by us and are expected to be clean.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("blocks: %w", err)
	}

	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := DecodeBlock(raw, i)
		if err != nil {
			return fmt.Errorf("blocks: %w", err)
		}
		out = append(out, b)
	}

	*bs = out
	return nil
}

// Text concatenates the contents of all text blocks, separated by blank
// lines. Image blocks are skipped.
func (bs Blocks) Text() string {
	var parts []string
	for _, b := range bs {
		if t, ok := b.(Text); ok {
			parts = append(parts, t.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Images returns the image blocks in order.
func (bs Blocks) Images() []Image {
	var images []Image
	for _, b := range bs {
		if img, ok := b.(Image); ok {
			images = append(images, img)
		}
	}
	return images
}

// HasImages reports whether the list contains at least one image block.
func (bs Blocks) HasImages() bool {
	for _, b := range bs {
		if _, ok := b.(Image); ok {
			return true
		}
	}
	return false
}
