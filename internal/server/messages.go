package server

import "encoding/json"

// ClientMessage is the envelope every inbound wire message is decoded
// into before being routed by type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the envelope every outbound wire message is
// encoded from.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
