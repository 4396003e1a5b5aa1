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

// Package gates provides a general tool for working with experimental
// feature gates.
package gates

import (
	"os"

	"github.com/pkg/errors"
)

// FeatureGateOCI gates support for OCI registries as a chart dependency
// repository.
const FeatureGateOCI = Gate("HELM_EXPERIMENTAL_OCI")

// Gate is the name of a feature gate, expressed as an environment variable.
type Gate string

// String returns the name of the environment variable for the gate.
func (g Gate) String() string {
	return string(g)
}

// IsEnabled returns true if the gate is enabled in the environment.
func (g Gate) IsEnabled() bool {
	return os.Getenv(string(g)) != ""
}

// Error returns an error indicating that the feature is not enabled.
func (g Gate) Error() error {
	return errors.Errorf("this feature has been marked as experimental and is not enabled by default. Please set %s=1 in your environment to use this feature", g.String())
}
