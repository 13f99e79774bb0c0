package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pql2/internal/ir"
	"github.com/roach88/pql2/internal/request"
)

// Suite is a set of queries checked against expected broker requests.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what this suite validates.
	Description string `yaml:"description"`

	// NormalizeHybridTables strips _REALTIME and _OFFLINE suffixes from
	// table names on both sides before comparing.
	NormalizeHybridTables bool `yaml:"normalize_hybrid_tables,omitempty"`

	Cases []Case `yaml:"cases"`

	// Dir is the directory expect_file paths are resolved against. Set by
	// LoadSuite to the suite file's directory.
	Dir string `yaml:"-"`

	// ID is the content hash of the suite file. Empty for suites built in code.
	ID string `yaml:"-"`
}

// Case is one query and the request it should compile to.
type Case struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`

	// Expect is the expected request written inline.
	Expect *request.BrokerRequest `yaml:"expect,omitempty"`

	// ExpectFile names a .json, .yaml, .yml or .cue request file, relative
	// to the suite file.
	ExpectFile string `yaml:"expect_file,omitempty"`

	// Equivalent is the verdict the comparison should reach. Defaults to true.
	Equivalent *bool `yaml:"equivalent,omitempty"`
}

// WantEquivalent reports the expected verdict.
func (c Case) WantEquivalent() bool {
	return c.Equivalent == nil || *c.Equivalent
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Dir = filepath.Dir(path)
	return suite, nil
}

// ParseSuite decodes suite YAML. Relative expect_file paths resolve against
// the working directory until Dir is set.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	id, err := ir.ContentID(ir.DomainSuite, string(data))
	if err != nil {
		return nil, err
	}
	suite.ID = id
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Query == "" {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		switch {
		case c.Expect == nil && c.ExpectFile == "":
			return fmt.Errorf("cases[%d]: one of expect or expect_file is required", i)
		case c.Expect != nil && c.ExpectFile != "":
			return fmt.Errorf("cases[%d]: expect and expect_file are mutually exclusive", i)
		}
	}

	return nil
}
