package humastar

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// Signals are the Datastar signals posted as a flat JSON object.
type Signals map[string]any

// ParseSignals decodes a request body. An empty body has no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(body) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// Checkbox returns the boolean signal bound to a checkbox. ok is false when
// the key is missing or not a boolean.
func (s Signals) Checkbox(key string) (checked, ok bool) {
	checked, ok = s[key].(bool)
	return checked, ok
}

// SignalsInput embeds the raw Datastar request body in a Huma input.
type SignalsInput struct {
	RawBody []byte
}

// Signals decodes the body, answering 400 when it is not a JSON object.
func (i *SignalsInput) Signals() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid signals", err)
	}
	return signals, nil
}
