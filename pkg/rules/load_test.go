package rules

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{
			name:    "no versions",
			doc:     "glossary: {}\n",
			problem: "document has no versions",
		},
		{
			name:    "versions not a mapping",
			doc:     "versions: [current]\n",
			problem: "expected a mapping",
		},
		{
			name:    "unknown version key",
			doc:     "versions:\n  next:\n    sections: {}\n",
			problem: `unknown rules version "next"`,
		},
		{
			name:    "missing sections",
			doc:     "versions:\n  current:\n    name: Current\n",
			problem: `version "current" has no sections`,
		},
		{
			name:    "non numeric section key",
			doc:     "versions:\n  current:\n    sections:\n      one:\n        name: x\n",
			problem: `section key "one" is not a non-negative integer`,
		},
		{
			name:    "non numeric subsection key",
			doc:     "versions:\n  current:\n    sections:\n      1:\n        subsections:\n          abc:\n            name: x\n",
			problem: `subsection key "abc" is not a three digit numeral`,
		},
		{
			name:    "four digit subsection key",
			doc:     "versions:\n  current:\n    sections:\n      1:\n        subsections:\n          1000:\n            name: x\n",
			problem: `subsection key "1000" is not a three digit numeral`,
		},
		{
			name: "duplicate subsection across sections",
			doc: "versions:\n  current:\n    sections:\n" +
				"      1:\n        subsections:\n          100:\n            name: a\n" +
				"      2:\n        subsections:\n          100:\n            name: b\n",
			problem: "subsection 100 appears in sections 1 and 2",
		},
		{
			name:    "subrule outside its subsection",
			doc:     "versions:\n  current:\n    sections:\n      1:\n        subsections:\n          100:\n            subrules:\n              \"101.1\": text\n",
			problem: `subrule "101.1" does not belong to subsection 100`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(stringsReader(tt.doc))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T: %v", err, err)
			assert.Contains(t, verr.Error(), tt.problem)
		})
	}
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	doc := "versions:\n  current:\n    sections:\n      x:\n        name: a\n      y:\n        name: b\n"
	_, err := Load(stringsReader(doc))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 2)
	assert.Contains(t, verr.Error(), "2 problems")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(stringsReader("versions: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoad_JSON(t *testing.T) {
	doc := `{
  "versions": {
    "current": {
      "name": "Current",
      "sections": {
        "1": {
          "name": "Game Concepts",
          "subsections": {
            "100": {"name": "General", "content": "c", "subrules": {"100.1": "t"}, "related": [101]}
          }
        }
      }
    }
  }
}`
	store, err := Load(stringsReader(doc))
	require.NoError(t, err)

	sub, ok := store.GetSubsection(VersionCurrent, "1", "100")
	require.True(t, ok)
	assert.Equal(t, []SubsectionID{"101"}, sub.Related)
	assert.Equal(t, []Subrule{{ID: "100.1", Text: "t"}}, sub.Subrules)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, bundledRules, 0o644))

	store, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, store.HasVersion(VersionCurrent))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open rules document")
}
