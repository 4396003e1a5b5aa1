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
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	// ChartfileName is the name of the chart manifest file.
	ChartfileName = "Chart.yaml"
	// ChartsDir is the relative directory name for a chart's dependencies.
	ChartsDir = "charts"
	// ArchiveExtension is the file extension of packaged chart archives.
	ArchiveExtension = ".tgz"
)

// ErrChartfileMissing indicates that a directory given as a chart does not
// contain a Chart.yaml.
var ErrChartfileMissing = errors.New("Chart.yaml file is missing")

// Chart is a read-only view of one unpacked chart directory.
//
// A Chart is constructed fresh for every directory inspected and is never
// mutated after construction. On-disk side effects (archives written into
// charts/) do not feed back into already-loaded instances; reload to observe
// them.
type Chart struct {
	// Path is the absolute path to the chart directory.
	Path string
	// Metadata is the interpreted part of the chart manifest.
	Metadata *Metadata

	// raw holds the manifest exactly as parsed, including every field the
	// resolver does not interpret. It is what PartialManifest copies from so
	// that dependency entries reach the fetcher verbatim.
	raw map[string]interface{}
}

// LoadDir loads a chart from an unpacked chart directory.
//
// The directory must contain a Chart.yaml; if it does not, the returned
// error wraps ErrChartfileMissing.
func LoadDir(path string) (*Chart, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("%s is not a valid path", path)
	}

	b, err := os.ReadFile(filepath.Join(dir, ChartfileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrChartfileMissing, "directory %s", dir)
		}
		return nil, err
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrapf(err, "cannot load %s from %s", ChartfileName, dir)
	}

	return &Chart{
		Path:     dir,
		Metadata: metadataFromManifest(raw),
		raw:      raw,
	}, nil
}

// Name returns the chart name from the manifest.
func (c *Chart) Name() string { return c.Metadata.Name }

// Version returns the chart version from the manifest.
func (c *Chart) Version() string { return c.Metadata.Version }

// FullName returns the name-version identifier of this chart release.
func (c *Chart) FullName() string { return c.Metadata.FullName() }

// SubchartsDir returns the charts/ directory in which resolved dependencies
// are materialized, as archives or as unpacked directories.
func (c *Chart) SubchartsDir() string { return filepath.Join(c.Path, ChartsDir) }

// DependencyFullNames returns one fully qualified name per declared
// dependency, in manifest order.
func (c *Chart) DependencyFullNames() []string {
	names := make([]string, len(c.Metadata.Dependencies))
	for i, d := range c.Metadata.Dependencies {
		names[i] = d.FullName()
	}
	return names
}

// MatchToDependencies returns the declared dependency full names that name
// is a prefix of.
//
// A candidate can either be the exact full name of a dependency or a prefix
// of one. The prefix form lets a dependency like some-dep-develop-1.0 be
// claimed by the name some-dep.
func (c *Chart) MatchToDependencies(name string) []string {
	matches := []string{}
	for _, full := range c.DependencyFullNames() {
		if strings.HasPrefix(full, name) {
			matches = append(matches, full)
		}
	}
	return matches
}

// PartialManifest renders a copy of the chart manifest whose dependency list
// is restricted to deps. Every other field, along with any dependency entry
// field this tool does not interpret, passes through untouched.
//
// The manifest is built from a deep copy; the loaded chart is not modified.
func (c *Chart) PartialManifest(deps []*Dependency) ([]byte, error) {
	copied, err := copystructure.Copy(c.raw)
	if err != nil {
		return nil, errors.Wrap(err, "cannot copy chart manifest")
	}
	manifest := copied.(map[string]interface{})

	entries := make([]interface{}, len(deps))
	for i, d := range deps {
		fields, err := copystructure.Copy(d.Fields)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot copy dependency %s", d.FullName())
		}
		entries[i] = fields
	}
	manifest["dependencies"] = entries

	return yaml.Marshal(manifest)
}
