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
	"errors"
	"regexp"
	"strings"
)

// Requirement is one parsed PEP 508-style requirement:
// name, optional extras, optional version specifiers, optional raw
// environment marker. It is never mutated after parsing.
type Requirement struct {
	Name       Name
	Extras     []string
	Constraint Constraint
	// Marker holds the raw marker text after ";", or "" when absent.
	// Evaluation is deferred to EvaluateMarker so the requirement itself
	// stays environment-independent.
	Marker string
}

// Simplified PEP 508 shape: name[extras]specifiers; marker.
var requirementPattern = regexp.MustCompile(
	`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)` + // 1: name
		`(?:\[([^\]]+)\])?` + // 2: extras
		`\s*` +
		`([^;]*)` + // 3: version specifiers
		`(?:;\s*(.*))?$`) // 4: marker

// Specifiers are tried longest-operator-first so "==" never shadows ">=".
var specifierOperators = []string{"===", "~=", "!=", "<=", ">=", "==", "<", ">"}

// ParseRequirement parses a requirement string such as
//
//	requests[socks]>=2.25.0,!=2.26.0; python_version >= "3.6"
//
// Every part except the name is optional. Specifiers are combined as an
// implicit intersection. A specifier that cannot be parsed is a hard
// *InvalidRequirementError and the returned Requirement is zero. The one
// permissive downgrade is "~=" on a version too short to bound: the
// Requirement comes back complete and usable, alongside a
// *ShortCompatibleReleaseError so the caller can warn about the widened
// match (see ConstraintFromOperator).
func ParseRequirement(s string) (Requirement, error) {
	m := requirementPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Requirement{}, &InvalidRequirementError{Input: s, Reason: "does not match requirement grammar"}
	}

	req := Requirement{Name: MakeName(m[1])}

	if m[2] != "" {
		for _, extra := range strings.Split(m[2], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	constraint, err := parseSpecifierList(s, m[3])
	if err != nil {
		var short *ShortCompatibleReleaseError
		if !errors.As(err, &short) {
			return Requirement{}, err
		}
	}
	req.Constraint = constraint

	req.Marker = strings.TrimSpace(m[4])
	return req, err
}

// parseSpecifierList parses a comma-separated operator+version list into a
// single constraint. An empty list means Any. A short "~=" keeps its Any
// fallback in the result and the advisory error rides along with it.
func parseSpecifierList(input, list string) (Constraint, error) {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")
	list = strings.TrimSpace(list)
	if list == "" {
		return AnyConstraint{}, nil
	}

	var members []Constraint
	var advisory error
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		op := ""
		for _, candidate := range specifierOperators {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}

		versionText := part
		if op != "" {
			versionText = strings.TrimSpace(part[len(op):])
		} else {
			// A bare version is an implicit exact match.
			op = "=="
		}

		version, err := ParseVersion(versionText)
		if err != nil {
			return nil, &InvalidRequirementError{
				Input:  input,
				Reason: "invalid version in specifier " + quoted(part),
			}
		}

		constraint, err := ConstraintFromOperator(op, version)
		if err != nil {
			var short *ShortCompatibleReleaseError
			if !errors.As(err, &short) {
				return nil, &InvalidRequirementError{Input: input, Reason: err.Error()}
			}
			advisory = err
		}
		members = append(members, constraint)
	}

	return NewIntersection(members...), advisory
}

func quoted(s string) string {
	return `"` + s + `"`
}
