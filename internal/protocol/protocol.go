// Package protocol encodes and decodes the JSON frames exchanged with
// classroom clients. Signaling payloads are carried as raw JSON and never
// inspected.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/liveclass/internal/model"
)

// Envelope is the frame shape for every message in both directions
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SignalRequest is the data of offer/answer/candidate and their p- variants
type SignalRequest struct {
	Target  string
	Payload json.RawMessage
}

// ParticipantSignalRequest is the data of p-answer-to
type ParticipantSignalRequest struct {
	ParticipantID model.ConnectionID
	Payload       json.RawMessage
}

// Encode builds an outbound frame
func Encode(event model.EventType, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// Decode parses an inbound frame. Only the envelope is validated here.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", model.ErrMalformedMessage, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", model.ErrMalformedMessage)
	}
	return env, nil
}

// DecodeJoin reads a join payload. It never fails: absent or wrong-typed
// fields come back empty and are defaulted by the registry.
func DecodeJoin(data json.RawMessage) model.JoinRequest {
	fields := objectFields(data)
	return model.JoinRequest{
		Name:         stringField(fields, "name"),
		Email:        stringField(fields, "email"),
		Organization: stringField(fields, "organization"),
		Title:        stringField(fields, "title"),
		Role:         stringField(fields, "role"),
	}
}

// DecodeSignal reads {target, payload}
func DecodeSignal(data json.RawMessage) (SignalRequest, error) {
	fields := objectFields(data)
	target := stringField(fields, "target")
	if target == "" {
		return SignalRequest{}, fmt.Errorf("%w: missing target", model.ErrMalformedMessage)
	}
	return SignalRequest{Target: target, Payload: fields["payload"]}, nil
}

// DecodeParticipantSignal reads {participant_id, payload}
func DecodeParticipantSignal(data json.RawMessage) (ParticipantSignalRequest, error) {
	fields := objectFields(data)
	id, err := DecodeParticipantID(data)
	if err != nil {
		return ParticipantSignalRequest{}, err
	}
	return ParticipantSignalRequest{ParticipantID: id, Payload: fields["payload"]}, nil
}

// DecodeParticipantID reads {participant_id}
func DecodeParticipantID(data json.RawMessage) (model.ConnectionID, error) {
	id := stringField(objectFields(data), "participant_id")
	if id == "" {
		return "", fmt.Errorf("%w: missing participant_id", model.ErrMalformedMessage)
	}
	return model.ConnectionID(id), nil
}

// DecodeChat reads {message}
func DecodeChat(data json.RawMessage) (string, error) {
	fields := objectFields(data)
	raw, ok := fields["message"]
	if !ok {
		return "", fmt.Errorf("%w: missing message", model.ErrMalformedMessage)
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("%w: message must be a string", model.ErrMalformedMessage)
	}
	return msg, nil
}

func objectFields(data json.RawMessage) map[string]json.RawMessage {
	fields := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fields
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return map[string]json.RawMessage{}
	}
	return fields
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
