package ws

import "encoding/json"

// envelope is the shape of every inbound and outbound socket message:
// a named event plus an opaque payload, the same envelope style
// spec.md §6 describes and the original prototype's socket.io event
// names (join:response, typing:update, ...) map onto directly.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encodeEnvelope(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Payload: raw})
}

// typePayload is the "type" ingress event: one character typed, plus
// the client's request id so the resulting update:me can be matched
// back up client-side.
type typePayload struct {
	Character string `json:"character"`
	RID       string `json:"rid,omitempty"`
}
