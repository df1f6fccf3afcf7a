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
	"regexp"
	"runtime"
	"strings"
)

// TargetEnvironment describes the environment a resolution targets.
// Marker clauses are evaluated against these values, never against the
// process that happens to run the solver.
type TargetEnvironment struct {
	PythonVersion   string
	SysPlatform     string
	PlatformSystem  string
	PlatformMachine string
}

// DefaultEnvironment derives a target environment from the running host,
// mapping GOOS/GOARCH onto the Python naming conventions.
func DefaultEnvironment() TargetEnvironment {
	env := TargetEnvironment{PythonVersion: "3.11"}

	switch runtime.GOOS {
	case "linux":
		env.SysPlatform = "linux"
		env.PlatformSystem = "Linux"
	case "darwin":
		env.SysPlatform = "darwin"
		env.PlatformSystem = "Darwin"
	case "windows":
		env.SysPlatform = "win32"
		env.PlatformSystem = "Windows"
	default:
		env.SysPlatform = runtime.GOOS
		env.PlatformSystem = runtime.GOOS
	}

	switch runtime.GOARCH {
	case "amd64":
		env.PlatformMachine = "x86_64"
	case "arm64":
		env.PlatformMachine = "aarch64"
	case "386":
		env.PlatformMachine = "i386"
	case "arm":
		env.PlatformMachine = "armv7l"
	default:
		env.PlatformMachine = runtime.GOARCH
	}

	return env
}

var (
	markerOrToken  = regexp.MustCompile(`\bor\b`)
	markerAndToken = regexp.MustCompile(`\band\b`)
	markerClause   = regexp.MustCompile(
		`^\s*\(*\s*([A-Za-z_]+)\s*(===|==|!=|>=|<=|>|<|~=)\s*["']([^"']*)["']\s*\)*\s*$`)
)

// EvaluateMarker evaluates an environment-marker expression against env.
//
// It recognizes comparison clauses over python_version (PEP 440 comparison),
// sys_platform, platform_system and platform_machine (string comparison),
// conjoined with "and". Anything it cannot recognize — unknown variables,
// "in"/"not in" operators, "or" groupings — evaluates to true: an
// ambiguous marker keeps the dependency rather than dropping it.
func EvaluateMarker(marker string, env TargetEnvironment) bool {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true
	}

	// Disjunctions are beyond the simple clause grammar; stay permissive.
	if markerOrToken.MatchString(marker) {
		return true
	}

	for _, clause := range markerAndToken.Split(marker, -1) {
		if !evaluateClause(clause, env) {
			return false
		}
	}
	return true
}

func evaluateClause(clause string, env TargetEnvironment) bool {
	m := markerClause.FindStringSubmatch(clause)
	if m == nil {
		return true
	}
	variable, op, literal := m[1], m[2], m[3]

	switch variable {
	case "python_version", "python_full_version":
		return compareMarkerVersions(env.PythonVersion, op, literal)
	case "sys_platform":
		return compareMarkerStrings(env.SysPlatform, op, literal)
	case "platform_system":
		return compareMarkerStrings(env.PlatformSystem, op, literal)
	case "platform_machine":
		return compareMarkerStrings(env.PlatformMachine, op, literal)
	default:
		return true
	}
}

// compareMarkerVersions compares dotted version literals numerically, so
// "3.11" is greater than "3.8". Unparseable values fall back to true.
func compareMarkerVersions(actual, op, required string) bool {
	av, err := ParseVersion(actual)
	if err != nil {
		return true
	}
	rv, err := ParseVersion(required)
	if err != nil {
		return true
	}

	if op == "~=" {
		c, err := compatibleRelease(rv)
		if err != nil {
			return true
		}
		return c.Allows(av)
	}
	return compareOrdering(av.Compare(rv), op)
}

func compareMarkerStrings(actual, op, required string) bool {
	return compareOrdering(strings.Compare(actual, required), op)
}

func compareOrdering(cmp int, op string) bool {
	switch op {
	case "==", "===":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	default:
		return true
	}
}
