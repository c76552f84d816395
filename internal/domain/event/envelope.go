package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of an event.
type Envelope struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Wrap stamps evt with a fresh id and the given time.
func Wrap(evt Event, at time.Time) Envelope {
	data := evt.Data
	if data == nil {
		data = struct{}{}
	}
	return Envelope{
		ID:        uuid.New(),
		Type:      evt.Type,
		Data:      data,
		Timestamp: at.UTC(),
	}
}

// Encode marshals the envelope once so it can be shared by every recipient.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
