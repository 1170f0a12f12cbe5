package rules

import (
	"fmt"
	"regexp"
	"strconv"
)

// VersionKey selects one edition of the comprehensive rules.
type VersionKey int

const (
	// VersionCurrent is the edition currently in force.
	VersionCurrent VersionKey = iota

	// VersionPrevious is the edition that preceded the current one.
	VersionPrevious
)

// DefaultVersion is the edition selected when nothing else is asked for.
const DefaultVersion = VersionCurrent

var versionKeyNames = [...]string{
	VersionCurrent:  "current",
	VersionPrevious: "previous",
}

// VersionKeys returns every known version key in canonical order.
func VersionKeys() []VersionKey {
	return []VersionKey{VersionCurrent, VersionPrevious}
}

// ParseVersionKey converts "current" or "previous" into a VersionKey.
func ParseVersionKey(s string) (VersionKey, error) {
	for key, name := range versionKeyNames {
		if name == s {
			return VersionKey(key), nil
		}
	}
	return DefaultVersion, fmt.Errorf("unknown rules version %q", s)
}

func (k VersionKey) String() string {
	if k < 0 || int(k) >= len(versionKeyNames) {
		return "VersionKey(" + strconv.Itoa(int(k)) + ")"
	}
	return versionKeyNames[k]
}

// MarshalText encodes the key by name.
func (k VersionKey) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(versionKeyNames) {
		return nil, fmt.Errorf("invalid rules version %d", int(k))
	}
	return []byte(versionKeyNames[k]), nil
}

// UnmarshalText decodes a key by name.
func (k *VersionKey) UnmarshalText(text []byte) error {
	parsed, err := ParseVersionKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SectionID identifies a top-level section ("1" through "9").
type SectionID string

// SubsectionID identifies a subsection by its three digit numeral ("101").
type SubsectionID string

// RuleID identifies a subrule ("101.2", "104.3a").
type RuleID string

// Subsection returns the subsection a rule number belongs to.
func (r RuleID) Subsection() (SubsectionID, bool) {
	return SubsectionOf(string(r))
}

var subsectionPrefix = regexp.MustCompile(`^(\d{3})(?:\.|$)`)

// SubsectionOf extracts the owning subsection id from a rule number: the
// leading run of exactly three digits, terminated by "." or the end of the
// string. "104.3a" and "704" resolve; "1045" and "rule 104" do not.
func SubsectionOf(rule string) (SubsectionID, bool) {
	m := subsectionPrefix.FindStringSubmatch(rule)
	if m == nil {
		return "", false
	}
	return SubsectionID(m[1]), true
}

// compareNumeric orders ids numerically when both are integers and
// lexically otherwise, mirroring how integer keys are ordered in the
// published rules data.
func compareNumeric(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareSectionIDs orders section ids numerically.
func CompareSectionIDs(a, b SectionID) int {
	return compareNumeric(string(a), string(b))
}
