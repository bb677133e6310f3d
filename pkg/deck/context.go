package deck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadContext reads a YAML parameter file and returns it as a map.
func LoadContext(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	var ctx map[string]any
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parsing context file: %w", err)
	}

	if ctx == nil {
		ctx = make(map[string]any)
	}

	return ctx, nil
}
