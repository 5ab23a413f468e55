package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is an alias of time.Duration that accepts both "24h"-style strings
// and raw nanosecond numbers when deserializing from json.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw interface{}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration: %#v", raw)
	}

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
