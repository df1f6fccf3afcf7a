// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipgrub

import (
	"fmt"
	"strings"
)

// CauseResolver maps incompatibility handles to their entries, letting a
// reporter walk a conflict's cause chain without access to solver state.
type CauseResolver interface {
	Resolve(id IncompID) *Incompatibility
}

// Reporter formats a terminal incompatibility into an error message.
type Reporter interface {
	Report(causes CauseResolver, terminal *Incompatibility) string
}

// DefaultReporter produces readable error messages with hierarchical structure.
type DefaultReporter struct{}

// Report implements Reporter.
func (r *DefaultReporter) Report(causes CauseResolver, terminal *Incompatibility) string {
	if terminal == nil {
		return "no solution found"
	}

	var lines []string
	r.describe(causes, terminal, &lines, 0, make(map[*Incompatibility]bool))
	return strings.Join(lines, "\n")
}

func (r *DefaultReporter) describe(causes CauseResolver, inc *Incompatibility, lines *[]string, depth int, visited map[*Incompatibility]bool) {
	if inc == nil || visited[inc] {
		return
	}
	visited[inc] = true

	indent := strings.Repeat("  ", depth)

	switch inc.Cause.Kind {
	case CauseNoVersion:
		if len(inc.Terms) > 0 {
			*lines = append(*lines, fmt.Sprintf("%sNo versions of %s satisfy the constraint", indent, inc.Terms[0]))
		}

	case CauseDependency:
		if dep, ok := inc.dependencyTerm(); ok {
			*lines = append(*lines, fmt.Sprintf("%sBecause %s %s depends on %s",
				indent, inc.Cause.From.Value(), inc.Cause.FromVersion, dep))
		}

	case CauseRoot:
		if dep, ok := inc.dependencyTerm(); ok {
			*lines = append(*lines, fmt.Sprintf("%sBecause %s requires %s",
				indent, inc.Cause.From.Value(), dep))
		}

	case CauseConflict:
		left := causes.Resolve(inc.Cause.Left)
		right := causes.Resolve(inc.Cause.Right)
		if left == nil || right == nil {
			*lines = append(*lines, indent+inc.String())
			return
		}
		*lines = append(*lines, indent+"Because:")
		r.describe(causes, left, lines, depth+1, visited)
		*lines = append(*lines, indent+"and:")
		r.describe(causes, right, lines, depth+1, visited)

		switch len(inc.Terms) {
		case 0:
			*lines = append(*lines, indent+"version solving has failed.")
		case 1:
			*lines = append(*lines, fmt.Sprintf("%s%s is forbidden.", indent, inc.Terms[0]))
		default:
			var termStrs []string
			for _, term := range inc.Terms {
				termStrs = append(termStrs, term.String())
			}
			*lines = append(*lines, fmt.Sprintf("%sthese constraints conflict: %s",
				indent, strings.Join(termStrs, " and ")))
		}

	default:
		*lines = append(*lines, indent+inc.String())
	}
}

// CollapsedReporter produces a more compact error format.
type CollapsedReporter struct{}

// Report implements Reporter with a collapsed format.
func (r *CollapsedReporter) Report(causes CauseResolver, terminal *Incompatibility) string {
	if terminal == nil {
		return "no solution found"
	}

	var lines []string
	r.collect(causes, terminal, &lines, make(map[*Incompatibility]bool))

	if len(lines) == 0 {
		return "version solving failed"
	}

	result := lines[0]
	for i := 1; i < len(lines); i++ {
		result += "\nAnd because " + lines[i]
	}
	return result
}

func (r *CollapsedReporter) collect(causes CauseResolver, inc *Incompatibility, lines *[]string, visited map[*Incompatibility]bool) {
	if inc == nil || visited[inc] {
		return
	}
	visited[inc] = true

	switch inc.Cause.Kind {
	case CauseNoVersion:
		if len(inc.Terms) > 0 {
			*lines = append(*lines, fmt.Sprintf("no versions of %s satisfy the constraint", inc.Terms[0]))
		}

	case CauseDependency:
		if dep, ok := inc.dependencyTerm(); ok {
			*lines = append(*lines, fmt.Sprintf("%s %s depends on %s",
				inc.Cause.From.Value(), inc.Cause.FromVersion, dep))
		}

	case CauseRoot:
		if dep, ok := inc.dependencyTerm(); ok {
			*lines = append(*lines, fmt.Sprintf("%s requires %s", inc.Cause.From.Value(), dep))
		}

	case CauseConflict:
		left := causes.Resolve(inc.Cause.Left)
		right := causes.Resolve(inc.Cause.Right)
		if left == nil || right == nil {
			*lines = append(*lines, inc.String())
			return
		}
		r.collect(causes, left, lines, visited)
		r.collect(causes, right, lines, visited)

		if len(inc.Terms) == 1 {
			*lines = append(*lines, fmt.Sprintf("%s is forbidden", inc.Terms[0]))
		} else if len(inc.Terms) > 1 {
			var termStrs []string
			for _, term := range inc.Terms {
				termStrs = append(termStrs, term.String())
			}
			*lines = append(*lines, fmt.Sprintf("these constraints conflict: %s",
				strings.Join(termStrs, " and ")))
		}

	default:
		*lines = append(*lines, inc.String())
	}
}

var (
	_ Reporter = (*DefaultReporter)(nil)
	_ Reporter = (*CollapsedReporter)(nil)
)
