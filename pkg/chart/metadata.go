/*
Copyright The clk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package chart

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Metadata models the part of a Chart.yaml this tool interprets.
type Metadata struct {
	// The name of the chart. Required.
	Name string `json:"name,omitempty"`
	// The version of the chart. Required.
	Version string `json:"version,omitempty"`
	// Dependencies are the charts this chart depends on, in manifest order.
	Dependencies []*Dependency `json:"dependencies,omitempty"`
}

// FullName returns the name-version identifier for this metadata.
func (md *Metadata) FullName() string {
	return md.Name + "-" + md.Version
}

// Validate checks the metadata for known issues.
func (md *Metadata) Validate() error {
	if md == nil {
		return errors.New("chart metadata is required")
	}
	if md.Name == "" {
		return errors.New("chart metadata name is required")
	}
	if md.Version == "" {
		return errors.New("chart metadata version is required")
	}
	if _, err := semver.NewVersion(md.Version); err != nil {
		return errors.Errorf("chart metadata version %q is invalid", md.Version)
	}
	return nil
}

// Dependency describes one chart upon which another chart depends. The same
// name may legally appear more than once when the versions differ.
type Dependency struct {
	// Name is the name of the dependency.
	Name string `json:"name"`
	// Version is the version of the dependency.
	Version string `json:"version"`
	// Fields is the dependency's manifest entry exactly as parsed. It may
	// carry fields like repository or condition that this tool does not
	// interpret but that the fetcher needs to see verbatim.
	Fields map[string]interface{} `json:"-"`
}

// FullName returns the name-version identifier of the dependency.
func (d *Dependency) FullName() string {
	return d.Name + "-" + d.Version
}

// metadataFromManifest extracts the interpreted fields from a parsed
// manifest. Entries that are not maps are ignored rather than failing the
// whole load; validation happens later, when the chart is packaged.
func metadataFromManifest(raw map[string]interface{}) *Metadata {
	md := &Metadata{}
	md.Name, _ = raw["name"].(string)
	md.Version, _ = raw["version"].(string)

	list, _ := raw["dependencies"].([]interface{})
	for _, entry := range list {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		d := &Dependency{Fields: fields}
		d.Name, _ = fields["name"].(string)
		d.Version, _ = fields["version"].(string)
		md.Dependencies = append(md.Dependencies, d)
	}
	return md
}
