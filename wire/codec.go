package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrPartial 解码时跳过了部分字段，其余部分仍可使用
var ErrPartial = errors.New("wire: partial document")

// Codec 文档与传输载荷之间的编解码
type Codec interface {
	Name() string
	Marshal(doc *Document) ([]byte, error)
	Unmarshal(data []byte, doc *Document) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

func (jsonCodec) Unmarshal(data []byte, doc *Document) error {
	return json.Unmarshal(data, doc)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Marshal(doc *Document) ([]byte, error) {
	return msgpack.Marshal(doc)
}

func (msgpackCodec) Unmarshal(data []byte, doc *Document) error {
	return msgpack.Unmarshal(data, doc)
}

var (
	// JSON 默认的文本编码
	JSON Codec = jsonCodec{}
	// Msgpack 紧凑的二进制编码
	Msgpack Codec = msgpackCodec{}
)

// CodecByName 按名称取 "json" 或 "msgpack"
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("wire: unknown codec %q", name)
	}
}

// Decode 解码 data。JSON 中类型不对的字段被跳过而不是整体失败，
// 此时结果与包装了 ErrPartial 的错误一起返回
func Decode(c Codec, data []byte) (*Document, error) {
	var doc Document
	err := c.Unmarshal(data, &doc)
	if err == nil {
		return &doc, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &doc, fmt.Errorf("%w: %v", ErrPartial, err)
	}
	return nil, err
}

// Encode 用 c 编码 doc
func Encode(c Codec, doc *Document) ([]byte, error) {
	data, err := c.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", c.Name(), err)
	}
	return data, nil
}
