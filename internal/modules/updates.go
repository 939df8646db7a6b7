package modules

import (
	"fmt"
	"strings"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

type UpdatesModule struct{}

func (m *UpdatesModule) Name() string        { return "Package Updates" }
func (m *UpdatesModule) Description() string { return "Bring all installed packages up to date" }

func (m *UpdatesModule) Apply(cfg *profile.UpdatesSection) error {
	return system.AptDistUpgrade()
}

func (m *UpdatesModule) Plan(cfg *profile.UpdatesSection) []string {
	return []string{
		"apt-get update -qq",
		"apt-get dist-upgrade -y",
	}
}

func (m *UpdatesModule) Verify(cfg *profile.UpdatesSection) *VerifyResult {
	result := &VerifyResult{ModuleName: m.Name()}

	simResult, err := system.Run("apt-get", "-s", "dist-upgrade")
	if err != nil {
		result.Checks = append(result.Checks, Check{
			Name:   "apt accessible",
			Status: StatusFail,
			Actual: err.Error(),
		})
		return result
	}

	result.Checks = append(result.Checks, upgradeSimCheck(simResult))
	return result
}

// upgradeSimCheck turns an "apt-get -s dist-upgrade" run into a check. A
// broken apt (exit != 0) is a failure outright; partial output would
// otherwise count zero Inst lines and masquerade as up to date.
func upgradeSimCheck(res *system.CmdResult) Check {
	if res.ExitCode != 0 {
		return Check{
			Name:   "apt accessible",
			Status: StatusFail,
			Actual: res.Stderr,
		}
	}

	pending := countPendingUpgrades(res.Stdout)
	status := StatusPass
	if pending > 0 {
		// New updates since the run are expected; not a hardening failure.
		status = StatusWarn
	}
	return Check{
		Name:     "packages up to date",
		Status:   status,
		Expected: "0 pending",
		Actual:   fmt.Sprintf("%d pending", pending),
	}
}

// countPendingUpgrades counts "Inst" lines in apt-get simulation output.
func countPendingUpgrades(simOutput string) int {
	count := 0
	for _, line := range strings.Split(simOutput, "\n") {
		if strings.HasPrefix(line, "Inst ") {
			count++
		}
	}
	return count
}
