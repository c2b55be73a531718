package grpc

import (
	json "github.com/goccy/go-json"
)

// jsonCodec carries plain Go structs over gRPC so the service needs no
// generated protobuf types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

// Codec is the codec clients must use to talk to the timeline service.
var Codec jsonCodec
