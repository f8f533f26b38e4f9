package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
)

// printStructured writes v as JSON or toon when asked to and reports
// whether it did.
func printStructured(v interface{}, asJSON, asToon bool) (bool, error) {
	if asJSON {
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(stdout, string(output))
		return true, nil
	}
	if asToon {
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(stdout, output)
		return true, nil
	}
	return false, nil
}
