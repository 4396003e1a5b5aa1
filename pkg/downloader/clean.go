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
	"os"
	"path/filepath"
	"strings"

	"github.com/clk-project/subchart/pkg/chart"
)

// Clean removes every archive in the chart's subcharts directory that no
// declared dependency claims, by exact full name or as a prefix owner.
// Unpacked directories are left alone. Running Clean twice produces the
// same directory state as running it once.
func (m *Manager) Clean(c *chart.Chart) error {
	entries, err := os.ReadDir(c.SubchartsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, chart.ArchiveExtension) {
			continue
		}
		fullName := strings.TrimSuffix(name, chart.ArchiveExtension)
		if len(c.MatchToDependencies(fullName)) > 0 {
			continue
		}
		fmt.Fprintf(m.Out, "Removing %s, it no longer fulfills any dependency of %s\n", name, c.FullName())
		if err := os.Remove(filepath.Join(c.SubchartsDir(), name)); err != nil {
			return err
		}
	}
	return nil
}
