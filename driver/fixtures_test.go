package driver

import (
	"bytes"
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

// testData is a table-driven fixture row, grounded on the teacher's
// utils.TestData/ReadTestData (utils/utils.go), extended with an
// "expected.stdout" field since this pipeline's observable result is
// printed output rather than a structural value.
type testData struct {
	Label    string
	Enable   bool
	Input    string
	Expected map[string]string
}

func readTestData(t *testing.T, path string) []testData {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixtures: %v", err)
	}
	var data []testData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parsing fixtures: %v", err)
	}

	i := 0
	for _, d := range data {
		if d.Enable {
			data[i] = d
			i++
		}
	}
	return data[:i]
}

// TestEndToEndScenarios runs the literal-output scenarios of spec.md §8
// plus the supplemented standard-library scenarios from one fixture
// file (SPEC_FULL.md §2 "Test tooling").
func TestEndToEndScenarios(t *testing.T) {
	for _, tc := range readTestData(t, "testdata/programs.yaml") {
		tc := tc
		t.Run(tc.Label, func(t *testing.T) {
			runner := NewRunner()
			var out bytes.Buffer
			runner.Interp.Stdout = &out

			code, err := runner.Run(tc.Input, ModeFile)
			if err != nil {
				t.Fatalf("Run: %v (exit %d)", err, code)
			}
			if code != ExitOK {
				t.Fatalf("exit code = %d, want %d", code, ExitOK)
			}
			if got := out.String(); got != tc.Expected["stdout"] {
				t.Errorf("stdout = %q, want %q", got, tc.Expected["stdout"])
			}
		})
	}
}
