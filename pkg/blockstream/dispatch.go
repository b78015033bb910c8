// Package blockstream provides an incremental decoder for unframed streams
// of typed content blocks. This file converts one parsed JSON value into a
// typed Block, enforcing the wire contract for each discriminator.
package blockstream

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// DecodeBlock converts one complete JSON value into a Block. The value must
// be an object carrying a "type" of "text" or "image" and a string "content";
// image content must be valid standard base64. Anything else returns a
// *BlockError carrying index, so the caller can skip the value and keep
// decoding the stream.
func DecodeBlock(raw []byte, index int) (Block, error) {
	value := gjson.ParseBytes(raw)
	if !value.IsObject() {
		return nil, &BlockError{Index: index, Reason: "value is not an object"}
	}

	typ := value.Get("type")
	if !typ.Exists() {
		return nil, &BlockError{Index: index, Reason: "missing type field"}
	}
	if typ.Type != gjson.String {
		return nil, &BlockError{Index: index, Reason: "type field is not a string"}
	}

	switch typ.Str {
	case TypeText:
		content := value.Get("content")
		if !content.Exists() {
			return nil, &BlockError{Index: index, BlockType: TypeText, Reason: "missing content field"}
		}
		if content.Type != gjson.String {
			return nil, &BlockError{Index: index, BlockType: TypeText, Reason: "content field is not a string"}
		}
		return Text{Content: content.Str}, nil

	case TypeImage:
		content := value.Get("content")
		if !content.Exists() {
			return nil, &BlockError{Index: index, BlockType: TypeImage, Reason: "missing content field"}
		}
		if content.Type != gjson.String {
			return nil, &BlockError{Index: index, BlockType: TypeImage, Reason: "content field is not a string"}
		}
		data, err := base64.StdEncoding.DecodeString(content.Str)
		if err != nil {
			return nil, &BlockError{Index: index, BlockType: TypeImage, Reason: fmt.Sprintf("invalid base64 content: %v", err)}
		}
		altText := value.Get("alt_text").Str
		if altText == "" {
			altText = DefaultAltText
		}
		return Image{Data: data, AltText: altText}, nil

	default:
		return nil, &BlockError{Index: index, BlockType: typ.Str, Reason: "unknown block type"}
	}
}
