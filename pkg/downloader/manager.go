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

package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/clk-project/subchart/internal/fileutil"
	"github.com/clk-project/subchart/pkg/chart"
	"github.com/clk-project/subchart/pkg/chartutil"
)

// Fetcher downloads chart dependencies in one batch.
//
// It is handed a partial chart manifest (the root chart's metadata plus only
// the dependencies to fetch, uninterpreted fields included) and a scratch
// directory. It returns the names of the archive files it wrote into the
// charts/ subdirectory of scratch. Any failure is fatal to the resolution
// and is propagated unchanged.
type Fetcher interface {
	Fetch(manifest []byte, scratch string) ([]string, error)
}

// Manager handles the lifecycle of resolving, substituting and storing
// chart dependencies.
//
// A Manager must not be used for two concurrent updates of the same chart;
// nothing protects the charts/ directory from concurrent mutation.
type Manager struct {
	// Out is used to print advisories and progress.
	Out io.Writer
	// ChartPath is the path to the unpacked root chart upon which this operates.
	ChartPath string
	// Sources are local chart directories that take precedence over
	// fetching for every dependency they match, at any nesting depth.
	Sources []*chart.Chart
	// Force refetches dependencies even when their archive is already on disk.
	Force bool
	// Remove deletes archives in charts/ that no declared dependency claims.
	Remove bool
	// Debug widens the progress narration.
	Debug bool
	// Fetcher downloads the dependencies that no source or on-disk archive
	// satisfies.
	Fetcher Fetcher
}

// subchartForm tells which materialized representation a subchart is in.
type subchartForm int

const (
	// archiveForm is a packaged <name>-<version>.tgz file.
	archiveForm subchartForm = iota
	// directoryForm is an unpacked chart directory.
	directoryForm
)

// subchartRef points at one materialized subchart. Keeping the form
// explicit keeps the resolve/substitute walk free of stat-based guessing.
type subchartRef struct {
	form subchartForm
	path string
}

// Update brings the dependency tree under the root chart's charts/
// directory up to date: dependencies matched by a source are packaged from
// that source, archives already on disk are reused (unless Force) but
// re-checked for nested source substitutions, and everything else is
// fetched in one batch. It reports whether anything changed on disk.
func (m *Manager) Update() (bool, error) {
	c, err := chart.LoadDir(m.ChartPath)
	if err != nil {
		return false, err
	}

	updated, err := m.resolve(c)
	if err != nil {
		return false, err
	}

	if m.Remove {
		if err := m.Clean(c); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// resolve reconciles the declared dependencies of c against the sources,
// the archives already in its charts/ directory and the fetcher, in that
// order of preference.
func (m *Manager) resolve(c *chart.Chart) (bool, error) {
	updated := false
	deps := c.Metadata.Dependencies
	if len(deps) > 0 {
		if err := os.MkdirAll(c.SubchartsDir(), 0755); err != nil {
			return false, err
		}
	}

	var toFetch []*chart.Dependency
	var recheck []subchartRef
	for _, dep := range deps {
		fullName := dep.FullName()
		archive := filepath.Join(c.SubchartsDir(), fullName+chart.ArchiveExtension)

		src, err := m.findOneSource(fullName)
		if err != nil {
			return false, err
		}
		switch {
		case src != nil:
			fmt.Fprintf(m.Out, "Using %s (from %s) to fulfill dependency %s\n", src.Name(), src.Path, fullName)
			if _, err := m.resolve(src); err != nil {
				return false, err
			}
			if _, err := chartutil.Save(src, c.SubchartsDir()); err != nil {
				return false, errors.Wrapf(err, "cannot package source %s", src.Path)
			}
			updated = true
		case m.Force:
			fmt.Fprintf(m.Out, "Unconditionally fetching %s as a dependency of %s\n", fullName, c.FullName())
			toFetch = append(toFetch, dep)
		case fileExists(archive):
			if m.Debug {
				fmt.Fprintf(m.Out, "%s is already an up to date dependency of %s\n", fullName, c.FullName())
			}
			recheck = append(recheck, subchartRef{form: archiveForm, path: archive})
		default:
			toFetch = append(toFetch, dep)
		}
	}

	if len(toFetch) > 0 {
		fetched, err := m.fetch(c, toFetch)
		if err != nil {
			return false, err
		}
		recheck = append(recheck, fetched...)
		updated = true
	}

	// archives may carry nested dependencies a source applies to, several
	// levels deep; every one of them gets re-checked
	for _, ref := range recheck {
		changed, err := m.recheckSubchart(c, ref)
		if err != nil {
			return false, err
		}
		updated = updated || changed
	}

	return updated, nil
}

// fetch downloads deps in a single batch through the Fetcher and moves the
// resulting archives into the chart's subcharts directory, replacing any
// archive already there.
func (m *Manager) fetch(c *chart.Chart, deps []*chart.Dependency) ([]subchartRef, error) {
	names := make([]string, len(deps))
	for i, dep := range deps {
		names[i] = dep.FullName()
	}
	fmt.Fprintf(m.Out, "Downloading %s for %s\n", strings.Join(names, ", "), c.FullName())

	manifest, err := c.PartialManifest(deps)
	if err != nil {
		return nil, err
	}

	// the scratch directory lives next to charts/ so that moving the
	// fetched archives into place never crosses a filesystem boundary
	scratch, err := os.MkdirTemp(c.Path, "tmpcharts-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	archives, err := m.Fetcher.Fetch(manifest, scratch)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot fetch dependencies of %s", c.FullName())
	}

	refs := make([]subchartRef, 0, len(archives))
	for _, name := range archives {
		oldPath := filepath.Join(scratch, chart.ChartsDir, name)
		newPath := filepath.Join(c.SubchartsDir(), name)
		if err := os.RemoveAll(newPath); err != nil {
			return nil, err
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return nil, errors.Wrapf(err, "cannot move fetched archive %s", name)
		}
		refs = append(refs, subchartRef{form: archiveForm, path: newPath})
	}
	fmt.Fprintf(m.Out, "Downloaded %s for %s\n", strings.Join(names, ", "), c.FullName())
	return refs, nil
}

// recheckSubchart applies source substitution to one materialized subchart
// of parent.
//
// An archive-form subchart is expanded into a scratch directory, its
// unpacked dependency tree is substituted, and when anything changed the
// archive is replaced by a repack of the modified tree. A directory-form
// subchart is substituted in place: either it matches a source itself and
// is replaced wholesale, or its own subcharts are walked.
func (m *Manager) recheckSubchart(parent *chart.Chart, ref subchartRef) (bool, error) {
	switch ref.form {
	case archiveForm:
		scratch, err := os.MkdirTemp("", "subchart-")
		if err != nil {
			return false, err
		}
		defer os.RemoveAll(scratch)

		if err := chartutil.ExpandFile(scratch, ref.path); err != nil {
			return false, err
		}
		dir, err := expandedChartDir(scratch)
		if err != nil {
			return false, err
		}
		sub, err := chart.LoadDir(dir)
		if err != nil {
			return false, err
		}

		changed, err := m.substitute(sub)
		if err != nil || !changed {
			return false, err
		}

		fmt.Fprintf(m.Out, "In %s, substituting %s by the resolved one\n", parent.Path, sub.FullName())
		// packaging replaces rather than appends, but removing first keeps
		// a failed repack from leaving the stale archive in place
		if err := os.Remove(ref.path); err != nil {
			return false, err
		}
		if _, err := chartutil.Save(sub, parent.SubchartsDir()); err != nil {
			return false, errors.Wrapf(err, "cannot repackage %s", sub.FullName())
		}
		return true, nil

	case directoryForm:
		sub, err := chart.LoadDir(ref.path)
		if err != nil {
			return false, err
		}
		src, err := m.findOneSource(sub.FullName())
		if err != nil {
			return false, err
		}
		if src == nil {
			return m.substitute(sub)
		}

		fmt.Fprintf(m.Out, "Substituting %s by the source %s from %s\n", ref.path, src.FullName(), src.Path)
		if err := os.RemoveAll(ref.path); err != nil {
			return false, err
		}
		// the copied-in source already reflects the caller's intended
		// state; no need to descend into it
		if err := fileutil.CopyDir(src.Path, ref.path); err != nil {
			return false, errors.Wrapf(err, "cannot copy source %s", src.Path)
		}
		return true, nil
	}
	return false, errors.Errorf("unknown subchart form for %s", ref.path)
}

// substitute walks the unpacked subcharts of c and applies source
// substitution to each, recursively. A tree with no matching subchart is
// left untouched.
func (m *Manager) substitute(c *chart.Chart) (bool, error) {
	entries, err := os.ReadDir(c.SubchartsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	updated := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ref := subchartRef{form: directoryForm, path: filepath.Join(c.SubchartsDir(), entry.Name())}
		changed, err := m.recheckSubchart(c, ref)
		if err != nil {
			return false, err
		}
		updated = updated || changed
	}
	return updated, nil
}

// expandedChartDir locates the top-level directory of an expanded archive.
func expandedChartDir(scratch string) (string, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(scratch, entry.Name()), nil
		}
	}
	return "", errors.Errorf("no chart directory found in %s", scratch)
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
