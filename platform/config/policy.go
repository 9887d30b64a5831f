package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipelinePolicy holds the lead pipeline tunables. It can be loaded from a
// YAML file and is then overridden by individual environment variables.
type PipelinePolicy struct {
	ApprovalMinGroups  int    `yaml:"approvalMinGroups"`
	BulkConcurrency    int    `yaml:"bulkConcurrency"`
	BulkMaxAttempts    int    `yaml:"bulkMaxAttempts"`
	PhoneDefaultRegion string `yaml:"phoneDefaultRegion"`
}

// DefaultPipelinePolicy returns the built-in policy.
func DefaultPipelinePolicy() PipelinePolicy {
	return PipelinePolicy{
		ApprovalMinGroups:  2,
		BulkConcurrency:    8,
		BulkMaxAttempts:    3,
		PhoneDefaultRegion: "AE",
	}
}

// LoadPipelinePolicy reads a policy file. Missing keys keep their defaults.
func LoadPipelinePolicy(path string) (PipelinePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PipelinePolicy{}, fmt.Errorf("read pipeline policy: %w", err)
	}
	return ParsePipelinePolicy(data)
}

// ParsePipelinePolicy decodes a YAML policy document on top of the defaults.
func ParsePipelinePolicy(data []byte) (PipelinePolicy, error) {
	policy := DefaultPipelinePolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return PipelinePolicy{}, fmt.Errorf("parse pipeline policy: %w", err)
	}
	if policy.ApprovalMinGroups < 1 {
		return PipelinePolicy{}, fmt.Errorf("approvalMinGroups must be at least 1")
	}
	if policy.BulkConcurrency < 1 {
		return PipelinePolicy{}, fmt.Errorf("bulkConcurrency must be at least 1")
	}
	if policy.BulkMaxAttempts < 1 {
		return PipelinePolicy{}, fmt.Errorf("bulkMaxAttempts must be at least 1")
	}
	policy.PhoneDefaultRegion = strings.ToUpper(strings.TrimSpace(policy.PhoneDefaultRegion))
	return policy, nil
}
