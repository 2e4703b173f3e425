package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML policy file over the defaults. Keys absent from the file
// keep their default values; lists present in the file replace the defaults.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML policy data over the defaults.
func Parse(data []byte) (*Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return p, nil
}

// Marshal encodes a policy as YAML.
func Marshal(p *Policy) ([]byte, error) {
	return yaml.Marshal(p)
}
