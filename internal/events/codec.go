package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownEventType = errors.New("unknown event type")

// Serialise encodes an event as flat tagged JSON: {"type":"HIT", ...fields}.
// Keys come out sorted so the same event always gives the same bytes.
func Serialise(e GameEvent) ([]byte, error) {
	if e == nil {
		return nil, errors.New("serialise: nil event")
	}
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialise %s: %w", e.Type(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("serialise %s: %w", e.Type(), err)
	}
	tag, _ := json.Marshal(e.Type())
	fields["type"] = tag

	return json.Marshal(fields)
}

// FromSerialised decodes a tagged event. An absent or unrecognised tag returns
// ErrUnknownEventType.
func FromSerialised(data []byte) (GameEvent, error) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch envelope.Type {
	case Begin:
		return BeginEvent{}, nil
	case Stationary:
		return StationaryEvent{}, nil
	case Abort:
		return AbortEvent{}, nil
	case Watch:
		var e WatchEvent
		return decode(data, &e)
	case Aim:
		var e AimEvent
		return decode(data, &e)
	case Hit:
		var e HitEvent
		return decode(data, &e)
	case PlaceBall:
		var e PlaceBallEvent
		return decode(data, &e)
	case Chat:
		var e ChatEvent
		return decode(data, &e)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, envelope.Type)
	}
}

func decode[T GameEvent](data []byte, e *T) (GameEvent, error) {
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", (*e).Type(), err)
	}
	return *e, nil
}
