package narration

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire messages are google.protobuf.Struct so the service needs no
// generated code. Field names follow the JSON tags of the Go types.
const (
	fieldText  = "text"
	fieldAudit = "audit"
)

// #region struct-codec
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal wire message: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("build wire struct: %w", err)
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("read wire struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal wire message: %w", err)
	}
	return nil
}

// #endregion struct-codec

// #region messages
func encodeRequest(req Request) (*structpb.Struct, error) {
	return toStruct(req)
}

func decodeRequest(s *structpb.Struct) (Request, error) {
	var req Request
	err := fromStruct(s, &req)
	return req, err
}

func encodeText(text string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldText: structpb.NewStringValue(text),
	}}
}

func encodeChunk(c Chunk) (*structpb.Struct, error) {
	if c.Audit == nil {
		return encodeText(c.Text), nil
	}
	audit, err := toStruct(c.Audit)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAudit: structpb.NewStructValue(audit),
	}}, nil
}

// decodeChunk reads a frame; audit frames are schema-validated.
func decodeChunk(s *structpb.Struct) (Chunk, error) {
	if v, ok := s.GetFields()[fieldAudit]; ok {
		raw, err := protojson.Marshal(v.GetStructValue())
		if err != nil {
			return Chunk{}, fmt.Errorf("read audit frame: %w", err)
		}
		meta, err := DecodeAudit(raw)
		if err != nil {
			return Chunk{}, err
		}
		return Chunk{Audit: &meta}, nil
	}
	return Chunk{Text: s.GetFields()[fieldText].GetStringValue()}, nil
}

// #endregion messages
