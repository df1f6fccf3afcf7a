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
	"regexp"
	"strconv"
	"strings"
)

// Version is an immutable PEP 440 version.
//
// Segments, most to least significant: epoch, release numbers, pre-release
// (a/b/rc + number), post-release, dev-release, local identifier.
// Versions are created by ParseVersion and never mutated afterwards.
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreSegment
	Post    *int
	Dev     *int
	Local   string
}

// PreSegment is a pre-release marker: tag is one of "a", "b" or "rc".
type PreSegment struct {
	Tag    string
	Number int
}

// Pattern adapted from pypa/packaging, as the reference resolvers use it.
// The post and dev tags are captured so that bare markers ("1.0.post",
// "1.0.dev") are still recognized as present with an implied zero.
var versionPattern = regexp.MustCompile(`(?i)^v?` +
	`(?:([0-9]+)!)?` + // 1: epoch
	`([0-9]+(?:\.[0-9]+)*)` + // 2: release segment
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?([0-9]+)?)?` + // 3,4: pre-release
	`(?:(?:-([0-9]+))|(?:[-_.]?(post|rev|r)[-_.]?([0-9]+)?))?` + // 5,6,7: post release
	`(?:[-_.]?(dev)[-_.]?([0-9]+)?)?` + // 8,9: dev release
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`) // 10: local version

// ParseVersion parses a PEP 440 version string.
// It accepts the usual spelling variations (leading "v", alias pre-release
// tags, "-N" post releases) and normalizes them; it returns
// *InvalidVersionError for anything outside the grammar.
func ParseVersion(s string) (*Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, &InvalidVersionError{Input: s}
	}

	v := &Version{}

	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &InvalidVersionError{Input: s}
		}
		v.Epoch = n
	}

	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &InvalidVersionError{Input: s}
		}
		v.Release = append(v.Release, n)
	}

	if m[3] != "" {
		tag := strings.ToLower(m[3])
		switch tag {
		case "alpha":
			tag = "a"
		case "beta":
			tag = "b"
		case "c", "pre", "preview":
			tag = "rc"
		}
		number := 0
		if m[4] != "" {
			number, _ = strconv.Atoi(m[4])
		}
		v.Pre = &PreSegment{Tag: tag, Number: number}
	}

	if m[5] != "" {
		n, _ := strconv.Atoi(m[5])
		v.Post = &n
	} else if m[6] != "" {
		n := 0
		if m[7] != "" {
			n, _ = strconv.Atoi(m[7])
		}
		v.Post = &n
	}

	if m[8] != "" {
		n := 0
		if m[9] != "" {
			n, _ = strconv.Atoi(m[9])
		}
		v.Dev = &n
	}

	if m[10] != "" {
		v.Local = strings.ToLower(m[10])
	}

	return v, nil
}

// MustParseVersion is ParseVersion for trusted literals; it panics on
// invalid input.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns a negative number if v sorts before other, zero if the two
// are equal and a positive number otherwise.
//
// Ordering follows PEP 440: epoch, then release (missing trailing segments
// count as zero), then pre-release (absence is greater, except that a
// bare dev release sorts below every pre-release), then post-release
// (presence is greater), then dev-release (absence is greater), then local
// segment (absence is lesser, otherwise lexicographic).
func (v *Version) Compare(other *Version) int {
	if c := cmpInt(v.Epoch, other.Epoch); c != 0 {
		return c
	}

	maxLen := len(v.Release)
	if len(other.Release) > maxLen {
		maxLen = len(other.Release)
	}
	for i := 0; i < maxLen; i++ {
		a, b := 0, 0
		if i < len(v.Release) {
			a = v.Release[i]
		}
		if i < len(other.Release) {
			b = other.Release[i]
		}
		if c := cmpInt(a, b); c != 0 {
			return c
		}
	}

	if c := cmpInt(v.preRank(), other.preRank()); c != 0 {
		return c
	}
	if v.Pre != nil && other.Pre != nil {
		if c := strings.Compare(v.Pre.Tag, other.Pre.Tag); c != 0 {
			return c
		}
		if c := cmpInt(v.Pre.Number, other.Pre.Number); c != 0 {
			return c
		}
	}

	// Post-release presence is greater than absence.
	switch {
	case v.Post != nil && other.Post == nil:
		return 1
	case v.Post == nil && other.Post != nil:
		return -1
	case v.Post != nil && other.Post != nil:
		if c := cmpInt(*v.Post, *other.Post); c != 0 {
			return c
		}
	}

	// Dev-release absence is greater than presence.
	switch {
	case v.Dev != nil && other.Dev == nil:
		return -1
	case v.Dev == nil && other.Dev != nil:
		return 1
	case v.Dev != nil && other.Dev != nil:
		if c := cmpInt(*v.Dev, *other.Dev); c != 0 {
			return c
		}
	}

	// Local segment absence is lesser than presence.
	switch {
	case v.Local == "" && other.Local != "":
		return -1
	case v.Local != "" && other.Local == "":
		return 1
	}
	return strings.Compare(v.Local, other.Local)
}

// preRank places the version in one of three pre-release tiers. A bare
// dev release has no pre and no post segment and sorts below every
// pre-release of the same release; final and post releases sort above.
func (v *Version) preRank() int {
	switch {
	case v.Pre != nil:
		return 1
	case v.Post == nil && v.Dev != nil:
		return 0
	default:
		return 2
	}
}

// Equal reports whether two versions compare equal.
func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// String returns the canonical form of the version. The canonical form
// re-parses to an equal Version, though it need not match the original
// input byte for byte.
func (v *Version) String() string {
	var b strings.Builder

	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}

	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}

	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Tag, v.Pre.Number)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if v.Local != "" {
		fmt.Fprintf(&b, "+%s", v.Local)
	}
	return b.String()
}

// MarshalJSON encodes the version as its canonical string. The disk cache
// tier round-trips PackageInfo through JSON, so this must stay stable.
func (v *Version) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.String())), nil
}

// UnmarshalJSON decodes a canonical version string.
func (v *Version) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// maxSentinel bounds open-ended ranges such as ">=1.0". Any real-world
// version sorts below it.
func maxSentinel() *Version {
	return &Version{Epoch: 9999, Release: []int{9999, 9999, 9999}}
}

// minSentinel bounds ranges such as "<2.0" from below. It carries the
// lowest possible pre and dev segments so that versions like "0.dev0"
// still sit inside the range.
func minSentinel() *Version {
	zero := 0
	return &Version{Release: []int{0}, Pre: &PreSegment{Tag: "a"}, Dev: &zero}
}
