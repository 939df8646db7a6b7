package cmd

import (
	"testing"

	"github.com/varnis/lockdown/internal/modules"
)

func TestFailFlushesLogBeforeExit(t *testing.T) {
	origFlush, origExit := flushLog, exitFunc
	defer func() { flushLog, exitFunc = origFlush, origExit }()

	var calls []string
	flushLog = func() { calls = append(calls, "flush") }
	exitFunc = func(code int) {
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
		calls = append(calls, "exit")
	}

	fail()

	if len(calls) != 2 || calls[0] != "flush" || calls[1] != "exit" {
		t.Errorf("call order = %v, want [flush exit]", calls)
	}
}

func TestTallyResults(t *testing.T) {
	results := []*modules.VerifyResult{
		{ModuleName: "a", Checks: []modules.Check{
			{Status: modules.StatusPass},
			{Status: modules.StatusWarn},
		}},
		{ModuleName: "b", Checks: []modules.Check{
			{Status: modules.StatusPass},
			{Status: modules.StatusFail},
		}},
	}

	passed, warned, failed := tallyResults(results)
	if passed != 2 || warned != 1 || failed != 1 {
		t.Errorf("tallyResults() = (%d, %d, %d), want (2, 1, 1)", passed, warned, failed)
	}
}

func TestWarningsAreNotFatal(t *testing.T) {
	// Pending updates on a live host surface as warnings; verify must
	// still be able to exit clean.
	results := []*modules.VerifyResult{
		{ModuleName: "updates", Checks: []modules.Check{
			{Status: modules.StatusWarn},
		}},
		{ModuleName: "ssh", Checks: []modules.Check{
			{Status: modules.StatusPass},
		}},
	}

	_, warned, failed := tallyResults(results)
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if warned != 1 {
		t.Errorf("warned = %d, want 1", warned)
	}
}
