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

// Package helm fetches chart dependencies by shelling out to the helm
// binary, which already knows how to talk to every repository kind.
package helm

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/clk-project/subchart/internal/gates"
	"github.com/clk-project/subchart/pkg/chart"
)

// Path is the path of the helm binary.
var Path = "helm"

// Runner downloads chart dependencies with `helm dependency update`.
type Runner struct {
	// Out receives helm's combined output.
	Out io.Writer
	// OCI enables helm's experimental support for oci:// repositories.
	OCI bool
}

// Fetch writes the partial manifest as the Chart.yaml of a throwaway chart
// in scratch, lets helm populate its charts/ directory and returns the
// names of the archives helm wrote there.
func (r *Runner) Fetch(manifest []byte, scratch string) ([]string, error) {
	if err := os.WriteFile(filepath.Join(scratch, chart.ChartfileName), manifest, 0644); err != nil {
		return nil, err
	}

	cmd := exec.Command(Path, "dependency", "update", scratch)
	cmd.Env = os.Environ()
	if r.OCI {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=1", gates.FeatureGateOCI))
	}
	out, err := cmd.CombinedOutput()
	if r.Out != nil {
		r.Out.Write(out)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "helm dependency update failed: %s", strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(filepath.Join(scratch, chart.ChartsDir))
	if err != nil {
		return nil, errors.Wrap(err, "helm did not populate the charts directory")
	}
	archives := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), chart.ArchiveExtension) {
			archives = append(archives, entry.Name())
		}
	}
	return archives, nil
}
