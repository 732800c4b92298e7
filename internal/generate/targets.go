package generate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target selects one (service, region) pair to process. Pairs absent from
// the remote indices are skipped silently.
type Target struct {
	Service string `yaml:"service" json:"service"`
	Region  string `yaml:"region" json:"region"`
}

// DefaultTargets is the compiled-in list of pairs processed when no targets
// file is given.
var DefaultTargets = []Target{
	{Service: "AmazonEC2", Region: "us-west-2"},
	{Service: "AmazonRDS", Region: "us-west-2"},
	{Service: "AmazonElastiCache", Region: "us-west-2"},
	{Service: "AmazonES", Region: "us-west-2"},
}

// LoadTargets reads a YAML list of targets:
//
//	- service: AmazonEC2
//	  region: us-west-2
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var targets []Target
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}

	for i, t := range targets {
		if t.Service == "" || t.Region == "" {
			return nil, fmt.Errorf("targets file %s: entry %d is missing service or region", path, i)
		}
	}
	return targets, nil
}
