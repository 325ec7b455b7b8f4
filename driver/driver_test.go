package driver

import (
	"bytes"
	"testing"
)

// TestFailureScenarios exercises spec.md §8's "must raise, not return"
// list, distinguishing static (65) from runtime (70) failures.
func TestFailureScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ExitCode
	}{
		{"divide by zero", `print 1 / 0;`, ExitRuntime},
		{"string plus number", `print "a" + 1;`, ExitRuntime},
		{"call a non-callable", `var x = 1; x();`, ExitRuntime},
		{"wrong arity", `fun f(a, b) { return a; } f(1);`, ExitRuntime},
		{"return at top level", `return 1;`, ExitStatic},
		{"this outside class", `print this;`, ExitStatic},
		{"class inherits from itself", `class A < A {}`, ExitStatic},
		{"undefined variable", `print undefined_name;`, ExitRuntime},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner := NewRunner()
			runner.Interp.Stdout = &bytes.Buffer{}
			code, err := runner.Run(tc.src, ModeFile)
			if err == nil {
				t.Fatalf("expected an error, got none (exit %d)", code)
			}
			if code != tc.want {
				t.Errorf("exit code = %d, want %d (err: %v)", code, tc.want, err)
			}
		})
	}
}

func TestPipelineHaltsBeforeResolverOnParseError(t *testing.T) {
	runner := NewRunner()
	code, err := runner.Run(`var ;`, ModeFile)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if code != ExitStatic {
		t.Errorf("exit code = %d, want %d", code, ExitStatic)
	}
}

func TestREPLAutoPrintsBareExpression(t *testing.T) {
	runner := NewRunner()
	var out bytes.Buffer
	runner.Interp.Stdout = &out

	if _, err := runner.Run(`1 + 2;`, ModeREPL); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), "3\n"; got != want {
		t.Errorf("REPL auto-print = %q, want %q", got, want)
	}
}
