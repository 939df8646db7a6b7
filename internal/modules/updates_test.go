package modules

import (
	"testing"

	"github.com/varnis/lockdown/internal/system"
)

func TestCountPendingUpgrades(t *testing.T) {
	simOutput := `Reading package lists...
Building dependency tree...
Calculating upgrade...
Inst libssl3t64 [3.0.13-0ubuntu3.4] (3.0.13-0ubuntu3.5 Ubuntu:24.04/noble-updates [amd64])
Inst openssl [3.0.13-0ubuntu3.4] (3.0.13-0ubuntu3.5 Ubuntu:24.04/noble-updates [amd64])
Conf libssl3t64 (3.0.13-0ubuntu3.5 Ubuntu:24.04/noble-updates [amd64])
Conf openssl (3.0.13-0ubuntu3.5 Ubuntu:24.04/noble-updates [amd64])
`
	if got := countPendingUpgrades(simOutput); got != 2 {
		t.Errorf("countPendingUpgrades() = %d, want 2", got)
	}

	upToDate := "Reading package lists...\nBuilding dependency tree...\n0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n"
	if got := countPendingUpgrades(upToDate); got != 0 {
		t.Errorf("countPendingUpgrades() = %d, want 0", got)
	}
}

func TestUpgradeSimCheck(t *testing.T) {
	t.Run("pending upgrades warn", func(t *testing.T) {
		c := upgradeSimCheck(&system.CmdResult{Stdout: "Inst openssl [1] (2)\n"})
		if c.Status != StatusWarn {
			t.Errorf("status = %v, want StatusWarn", c.Status)
		}
		if c.Actual != "1 pending" {
			t.Errorf("actual = %q, want %q", c.Actual, "1 pending")
		}
	})

	t.Run("up to date passes", func(t *testing.T) {
		c := upgradeSimCheck(&system.CmdResult{Stdout: "0 upgraded, 0 newly installed\n"})
		if c.Status != StatusPass {
			t.Errorf("status = %v, want StatusPass", c.Status)
		}
	})

	t.Run("broken apt fails even with empty output", func(t *testing.T) {
		c := upgradeSimCheck(&system.CmdResult{
			Stdout:   "Reading package lists...",
			Stderr:   "E: The repository does not have a Release file",
			ExitCode: 100,
		})
		if c.Status != StatusFail {
			t.Errorf("status = %v, want StatusFail for exit 100", c.Status)
		}
		if c.Actual == "" {
			t.Errorf("failure detail missing")
		}
	})
}
