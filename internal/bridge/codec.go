package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes bridge payloads.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Codec names, matching config.EncodingJSON and config.EncodingMsgpack.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// CodecFor returns the codec for an encoding name.
func CodecFor(encoding string) (Codec, error) {
	switch encoding {
	case EncodingJSON, "":
		return jsonCodec{}, nil
	case EncodingMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return EncodingJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// msgpackCodec uses the json struct tags so both encodings share field names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return EncodingMsgpack }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	// Numbers decoded into interfaces become int64, uint64 or float64.
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}
