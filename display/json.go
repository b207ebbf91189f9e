package display

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON marshals with pretty formatting for human-readable output and
// compact formatting for machine consumers.
func MarshalJSON(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// OutputJSON marshals and prints JSON using MarshalJSON
func OutputJSON(v interface{}, pretty bool) error {
	data, err := MarshalJSON(v, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
