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

package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clk-project/subchart/internal/gates"
	"github.com/clk-project/subchart/pkg/chart"
	"github.com/clk-project/subchart/pkg/downloader"
	"github.com/clk-project/subchart/pkg/helm"
)

const updateDesc = `
Update the on-disk dependencies of a chart to mirror its Chart.yaml.

Dependencies whose archive is already present in 'charts/' are kept as they
are (use --force to refetch them), the rest is downloaded with
'helm dependency update'.

Every chart directory given with --package takes precedence over fetching:
each dependency it matches, at any depth of the tree, is packaged from that
directory instead, after its own dependencies have been resolved the same
way. A package matches a dependency when its name is a prefix of the
dependency's <name>-<version> full name, so a package named 'foo' also
fulfills a dependency named 'foo-dev'. A dependency matched by several
packages is an error.
`

type updateOptions struct {
	chartPath string
	force     bool
	packages  []string
	remove    bool
	touch     string
	oci       bool
	debug     bool
}

func newUpdateCmd(out io.Writer) *cobra.Command {
	o := &updateOptions{}

	cmd := &cobra.Command{
		Use:     "update CHART",
		Aliases: []string{"up"},
		Short:   "update charts/ based on the contents of Chart.yaml",
		Long:    updateDesc,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.chartPath = "."
			if len(args) > 0 {
				o.chartPath = filepath.Clean(args[0])
			}
			return o.run(out)
		},
	}

	addUpdateFlags(cmd.Flags(), o)

	return cmd
}

func addUpdateFlags(f *pflag.FlagSet, o *updateOptions) {
	f.BoolVarP(&o.force, "force", "f", false, "fetch dependencies even when their archive is already in charts/")
	f.StringArrayVarP(&o.packages, "package", "p", nil, "chart directory to use instead of fetching every dependency it matches (repeatable)")
	f.BoolVar(&o.remove, "remove", true, "remove archives in charts/ that no dependency claims")
	f.StringVarP(&o.touch, "touch", "t", "", "touch this file when the update changed anything")
	f.BoolVar(&o.oci, "experimental-oci", gates.FeatureGateOCI.IsEnabled(), "let helm use oci:// repositories")
	f.BoolVar(&o.debug, "debug", false, "narrate dependencies that are already up to date")
}

func (o *updateOptions) run(out io.Writer) error {
	sources := make([]*chart.Chart, len(o.packages))
	for i, path := range o.packages {
		src, err := chart.LoadDir(path)
		if err != nil {
			return errors.Wrapf(err, "cannot load package %s", path)
		}
		sources[i] = src
	}

	man := &downloader.Manager{
		Out:       out,
		ChartPath: o.chartPath,
		Sources:   sources,
		Force:     o.force,
		Remove:    o.remove,
		Debug:     o.debug,
		Fetcher:   &helm.Runner{Out: out, OCI: o.oci},
	}
	updated, err := man.Update()
	if err != nil {
		return err
	}

	if updated && o.touch != "" {
		if err := touch(o.touch); err != nil {
			return errors.Wrapf(err, "cannot touch %s", o.touch)
		}
	}
	return nil
}

// touch updates the modification time of path, creating it when needed, so
// that build systems watching it notice the dependency change.
func touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		return f.Close()
	}
	return nil
}
