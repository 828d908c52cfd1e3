package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSeed = `
organizations:
  - name: Springfield Academy
    abbreviation: SA
    max_depth: 2
    labels:
      attendee_label: Student
    children:
      - name: North Campus
        children:
          - name: Lab
      - name: South Campus
  - name: Shelbyville Institute
`

func TestParseAndValidateSeed(t *testing.T) {
	f, err := parseSeed(strings.NewReader(validSeed))
	require.NoError(t, err)
	require.Len(t, f.Organizations, 2)
	assert.Equal(t, uint(2), f.Organizations[0].MaxDepth)
	assert.Equal(t, "Student", f.Organizations[0].Labels["attendee_label"])

	n, err := validateSeed(f)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestParseSeed_Rejects(t *testing.T) {
	_, err := parseSeed(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, err = parseSeed(strings.NewReader("organizations:\n  - name: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestValidateSeed_Rejects(t *testing.T) {
	cases := map[string]string{
		"no organizations":  "organizations: []\n",
		"name is required":  "organizations:\n  - abbreviation: X\n",
		"duplicate sibling": "organizations:\n  - name: A\n    children:\n      - name: B\n      - name: B\n",
		"unknown label key": "organizations:\n  - name: A\n    labels:\n      pupil_label: Pupil\n",
	}
	for want, doc := range cases {
		t.Run(want, func(t *testing.T) {
			f, err := parseSeed(strings.NewReader(doc))
			require.NoError(t, err)
			_, err = validateSeed(f)
			assert.ErrorContains(t, err, want)
		})
	}
}

func TestSeedCmd_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSeed), 0o600))

	out, err := run(t, "seed", "--file", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"dry_run","organizations":5,"applied":false}`, strings.TrimSpace(out))
}

func TestSeedCmd_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("organizations: []\n"), 0o600))

	_, err := run(t, "seed", "--file", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))

	_, err = run(t, "seed", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitUsage, exitCode(err))
}
