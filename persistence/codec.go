package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec 序列化协作者
// 使用 agent / workflow 定义上声明的字段名；未知字段被忽略
type Codec interface {
	Name() string
	Ext() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// YAMLCodec encodes with gopkg.in/yaml.v3.
type YAMLCodec struct{}

func (YAMLCodec) Name() string        { return "yaml" }
func (YAMLCodec) Ext() string         { return ".yaml" }
func (YAMLCodec) ContentType() string { return "application/yaml" }

func (YAMLCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

// JSONCodec encodes with encoding/json.
type JSONCodec struct {
	Indent bool
}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) Ext() string         { return ".json" }
func (JSONCodec) ContentType() string { return "application/json" }

func (c JSONCodec) Marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if c.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// CodecByName returns the codec registered under name ("yaml", "yml", "json").
func CodecByName(name string) (Codec, error) {
	switch name {
	case "yaml", "yml", "":
		return YAMLCodec{}, nil
	case "json":
		return JSONCodec{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
