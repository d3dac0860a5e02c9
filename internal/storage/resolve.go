package storage

import (
	"encoding/json"
	"time"

	"github.com/dreamware/kronos/internal/ktime"
)

// eventEnvelope is the minimal shape Kronos looks for inside a payload to
// find an already-assigned id. Every other field is opaque and passed
// through untouched — the core never schema-validates event bodies.
type eventEnvelope struct {
	Id string `json:"id"`
}

// ResolveEventID returns the id an event should be stored under: the id
// embedded in its JSON payload if present and parseable, or a freshly
// synthesized one (kind Random, timestamped now) if the payload carries no
// id field or an empty one. A non-empty id field that fails to parse fails
// with InvalidUUID, which Insert reports as InvalidEvent for that event; no
// new id is assigned in that case, since that would mask a bug in the
// producer.
func ResolveEventID(ev Event) (ktime.EventId, error) {
	if ev.Id != ktime.Nil {
		return ev.Id, nil
	}
	var env eventEnvelope
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &env); err != nil {
			return ktime.Nil, &InvalidUUID{Context: "payload is not a JSON object", Err: err}
		}
	}
	if env.Id == "" {
		now, err := ktime.TimeToKronosTime(time.Now())
		if err != nil {
			return ktime.Nil, &OverflowError{Err: err}
		}
		id, err := ktime.NewEventID(now, ktime.Random)
		if err != nil {
			return ktime.Nil, &OverflowError{Err: err}
		}
		return id, nil
	}
	id, err := ktime.ParseEventID(env.Id)
	if err != nil {
		return ktime.Nil, &InvalidUUID{Context: "payload id field", Err: err}
	}
	return id, nil
}
