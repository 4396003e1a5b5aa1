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
	"strings"

	"github.com/clk-project/subchart/pkg/chart"
)

// ErrAmbiguousSource indicates that more than one supplied source chart
// matches a single dependency. Silent tie-breaking would produce a
// non-reproducible tree, so the caller has to narrow the source set.
type ErrAmbiguousSource struct {
	// Dependency is the fully qualified name that was being matched.
	Dependency string
	// Sources are the locations of every contending source chart.
	Sources []string
}

func (e ErrAmbiguousSource) Error() string {
	return fmt.Sprintf("more than one source matches dependency %s: %s",
		e.Dependency, strings.Join(e.Sources, ", "))
}

// MatchSources returns every source whose unversioned chart name is a
// prefix of fullName, in the order the sources were supplied.
//
// Matching on the unversioned name is a deliberate convenience: it lets a
// dependency named foo-dev-1.0.0 be satisfied by a source chart named foo.
func MatchSources(fullName string, sources []*chart.Chart) []*chart.Chart {
	var matches []*chart.Chart
	for _, s := range sources {
		if strings.HasPrefix(fullName, s.Name()) {
			matches = append(matches, s)
		}
	}
	return matches
}

// findOneSource returns the single source able to fulfill fullName, or nil
// when none matches. Several contenders are a configuration error, reported
// as ErrAmbiguousSource. A match under a different release name is reported
// as a guess but still used.
func (m *Manager) findOneSource(fullName string) (*chart.Chart, error) {
	matches := MatchSources(fullName, m.Sources)
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		src := matches[0]
		if src.FullName() != fullName {
			fmt.Fprintf(m.Out, "I guessed that the provided package %s (available at %s) is a good candidate to fulfill the dependency %s. Am I wrong?\n",
				src.FullName(), src.Path, fullName)
		}
		return src, nil
	default:
		locations := make([]string, len(matches))
		for i, s := range matches {
			locations[i] = s.Path
		}
		return nil, ErrAmbiguousSource{Dependency: fullName, Sources: locations}
	}
}
