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

	"github.com/spf13/cobra"

	"github.com/clk-project/subchart/internal/version"
)

const rootDesc = `
Keep a chart's dependency tree up to date, with local overrides.

subchart resolves the dependencies declared in a chart's Chart.yaml the way
'helm dependency update' does, except that locally available chart sources
can stand in for remote fetches, at any depth of the dependency tree.
`

func newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "subchart",
		Short:        "dependency resolution for charts, with local overrides",
		Long:         rootDesc,
		Version:      version.GetVersion(),
		SilenceUsage: true,
	}
	cmd.AddCommand(newUpdateCmd(out))
	return cmd
}
