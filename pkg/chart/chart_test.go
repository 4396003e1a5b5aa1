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
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

func writeChartfile(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ChartfileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const frontendManifest = `name: frontend
version: 1.2.3
description: the frontend of the stack
dependencies:
  - name: api
    version: 0.4.0
    repository: https://charts.example.com
    condition: api.enabled
  - name: redis
    version: 16.8.5
    repository: https://charts.bitnami.com/bitnami
  - name: api
    version: 0.5.0
    repository: https://charts.example.com
`

func TestLoadDir(t *testing.T) {
	dir := writeChartfile(t, filepath.Join(t.TempDir(), "frontend"), frontendManifest)

	c, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("Failed to load chart: %s", err)
	}
	if c.Name() != "frontend" {
		t.Errorf("Expected name frontend, got %q", c.Name())
	}
	if c.Version() != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %q", c.Version())
	}
	if c.FullName() != "frontend-1.2.3" {
		t.Errorf("Expected full name frontend-1.2.3, got %q", c.FullName())
	}
	if !filepath.IsAbs(c.Path) {
		t.Errorf("Expected an absolute chart path, got %q", c.Path)
	}
	if c.SubchartsDir() != filepath.Join(c.Path, "charts") {
		t.Errorf("Unexpected subcharts dir %q", c.SubchartsDir())
	}

	want := []string{"api-0.4.0", "redis-16.8.5", "api-0.5.0"}
	if got := c.DependencyFullNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected dependency full names %v, got %v", want, got)
	}
}

func TestLoadDirMissingChartfile(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	if err == nil {
		t.Fatal("Expected an error loading a directory without a Chart.yaml")
	}
	if !errors.Is(err, ErrChartfileMissing) {
		t.Errorf("Expected ErrChartfileMissing, got %q", err)
	}
}

func TestLoadDirBadManifest(t *testing.T) {
	dir := writeChartfile(t, filepath.Join(t.TempDir(), "broken"), "name: [")
	if _, err := LoadDir(dir); err == nil {
		t.Fatal("Expected an error loading an unparseable Chart.yaml")
	}
}

func TestMatchToDependencies(t *testing.T) {
	dir := writeChartfile(t, filepath.Join(t.TempDir(), "frontend"), frontendManifest)
	c, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want []string
	}{
		{"api-0.4.0", []string{"api-0.4.0"}},
		{"api", []string{"api-0.4.0", "api-0.5.0"}},
		{"redis", []string{"redis-16.8.5"}},
		{"postgres", []string{}},
		// the prefix rule does not split on the name/version separator
		{"red", []string{"redis-16.8.5"}},
	}
	for _, tt := range tests {
		if got := c.MatchToDependencies(tt.name); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("MatchToDependencies(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPartialManifest(t *testing.T) {
	dir := writeChartfile(t, filepath.Join(t.TempDir(), "frontend"), frontendManifest)
	c, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	out, err := c.PartialManifest([]*Dependency{c.Metadata.Dependencies[1]})
	if err != nil {
		t.Fatalf("Failed to render partial manifest: %s", err)
	}

	manifest := map[string]interface{}{}
	if err := yaml.Unmarshal(out, &manifest); err != nil {
		t.Fatal(err)
	}
	if manifest["name"] != "frontend" || manifest["version"] != "1.2.3" {
		t.Errorf("Partial manifest lost root metadata: %v", manifest)
	}
	if manifest["description"] != "the frontend of the stack" {
		t.Errorf("Partial manifest lost uninterpreted root fields: %v", manifest)
	}

	deps, ok := manifest["dependencies"].([]interface{})
	if !ok || len(deps) != 1 {
		t.Fatalf("Expected exactly one dependency, got %v", manifest["dependencies"])
	}
	entry := deps[0].(map[string]interface{})
	if entry["name"] != "redis" || entry["version"] != "16.8.5" {
		t.Errorf("Unexpected dependency entry %v", entry)
	}
	if entry["repository"] != "https://charts.bitnami.com/bitnami" {
		t.Errorf("Partial manifest lost uninterpreted dependency fields: %v", entry)
	}

	// the loaded chart must not have been narrowed as a side effect
	if len(c.Metadata.Dependencies) != 3 {
		t.Errorf("PartialManifest mutated the loaded chart: %v", c.DependencyFullNames())
	}
}
