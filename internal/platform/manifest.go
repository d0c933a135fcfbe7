package platform

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Manifest declares the integration adapters to register at startup.
type Manifest struct {
	Integrations []IntegrationSpec `yaml:"integrations"`
}

// IntegrationSpec configures one integration in the manifest.
type IntegrationSpec struct {
	Name string `yaml:"name"`
	// Kind selects the adapter implementation; "mock" only for now.
	Kind           string  `yaml:"kind"`
	BaseViews      int64   `yaml:"base_views"`
	CTR            float64 `yaml:"ctr"`
	CVR            float64 `yaml:"cvr"`
	HasConversions bool    `yaml:"has_conversions"`
	FailureRate    float64 `yaml:"failure_rate"`
	LatencyMs      int     `yaml:"latency_ms"`
}

// LoadManifest reads an integration manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "platform: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "platform: parse manifest")
	}

	if len(m.Integrations) == 0 {
		return nil, eris.New("platform: manifest declares no integrations")
	}
	seen := make(map[string]bool, len(m.Integrations))
	for i, spec := range m.Integrations {
		if spec.Name == "" {
			return nil, eris.Errorf("platform: integration %d has no name", i)
		}
		if seen[spec.Name] {
			return nil, eris.Errorf("platform: duplicate integration %q", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Kind != "" && spec.Kind != "mock" {
			return nil, eris.Errorf("platform: integration %q has unsupported kind %q", spec.Name, spec.Kind)
		}
		if spec.FailureRate < 0 || spec.FailureRate >= 1 {
			return nil, eris.Errorf("platform: integration %q failure_rate %v out of [0,1)", spec.Name, spec.FailureRate)
		}
	}
	return &m, nil
}

// BuildRegistry constructs adapters from the manifest.
func (m *Manifest) BuildRegistry(seed int64) *Registry {
	r := NewRegistry()
	for _, spec := range m.Integrations {
		profile := MockProfile{
			BaseViews:      spec.BaseViews,
			CTR:            spec.CTR,
			CVR:            spec.CVR,
			HasConversions: spec.HasConversions,
			FailureRate:    spec.FailureRate,
			Latency:        time.Duration(spec.LatencyMs) * time.Millisecond,
		}
		r.Register(NewMockAdapter(spec.Name, seed, profile))
	}
	return r
}
