package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleBuildSpec = `executables:
  - name: electrum-sv
    script: electrum-sv
  - name: electrum-sv-console
    script: electrum-sv
    console: true

excluded_modules:
  - tkinter
  - PyQt5.QtWebEngine
`

func TestBuildSpecFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleBuildSpec), 0o644))

	spec, err := BuildSpecFromFile(path)
	require.NoError(t, err)

	require.Len(t, spec.Executables, 2)
	require.Equal(t, "electrum-sv", spec.Executables[0].Name)
	require.False(t, spec.Executables[0].Console)
	require.True(t, spec.Executables[1].Console)
	require.Equal(t, []string{"tkinter", "PyQt5.QtWebEngine"}, spec.ExcludedModules)
}

func TestBuildSpecValidateErrors(t *testing.T) {
	testcases := []struct {
		name string
		spec BuildSpec
	}{
		{name: "no executables", spec: BuildSpec{}},
		{
			name: "missing name",
			spec: BuildSpec{Executables: []Executable{{Script: "electrum-sv"}}},
		},
		{
			name: "missing script",
			spec: BuildSpec{Executables: []Executable{{Name: "electrum-sv"}}},
		},
		{
			name: "duplicate name",
			spec: BuildSpec{Executables: []Executable{
				{Name: "electrum-sv", Script: "a"},
				{Name: "electrum-sv", Script: "b"},
			}},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.spec.Validate())
		})
	}
}
