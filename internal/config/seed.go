package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document naming the projects the store starts with.
//
//	projects:
//	  - id: work
//	    name: Work
//	    description: Tasks for ${COMPANY}
type SeedFile struct {
	Projects []SeedProject `yaml:"projects"`
}

// SeedProject is one project entry in a seed file.
type SeedProject struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Open        *bool  `yaml:"open"`
}

// LoadSeed reads and parses a seed file, expanding env vars.
func LoadSeed(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	seed, err := ParseSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

// ParseSeed parses a seed document from bytes.
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	seen := make(map[string]bool, len(seed.Projects))
	for i, p := range seed.Projects {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("project %d: id and name are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("project %q: duplicate id", p.ID)
		}
		seen[p.ID] = true
	}
	return &seed, nil
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the environment value; missing
// vars become "".
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
