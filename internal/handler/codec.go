package handler

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// jsonCodec はメッセージを素の Go 構造体のまま JSON で送受信する connect.Codec です
// 名前を "json" にすることで既定の protojson コーデックを置き換えます
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithJSON はクライアントで同じコーデックを使うためのオプションです
func WithJSON() connect.ClientOption {
	return connect.WithCodec(jsonCodec{})
}
