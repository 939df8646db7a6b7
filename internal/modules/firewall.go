package modules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

type FirewallModule struct{}

func (m *FirewallModule) Name() string        { return "UFW Firewall" }
func (m *FirewallModule) Description() string { return "Deny incoming, open the SSH port" }

// Apply installs and enables UFW with deny-incoming defaults and a single
// rule for the SSH port. Rate limiting uses "ufw limit" in place of the
// allow rule, never alongside it, so the port always carries one rule.
func (m *FirewallModule) Apply(cfg *profile.FirewallSection, sshPort int) error {
	if !system.IsInstalled("ufw") {
		if err := system.AptInstall("ufw"); err != nil {
			return fmt.Errorf("failed to install ufw: %w", err)
		}
	}

	for _, cmd := range m.commands(cfg, sshPort) {
		result, err := system.RunShell(cmd)
		if err != nil {
			return fmt.Errorf("failed: %s: %w", cmd, err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("failed: %s: %s", cmd, result.Stderr)
		}
	}

	return nil
}

func (m *FirewallModule) commands(cfg *profile.FirewallSection, sshPort int) []string {
	rule := "allow"
	if cfg.RateLimitSSH {
		rule = "limit"
	}
	return []string{
		"ufw default deny incoming",
		"ufw default allow outgoing",
		fmt.Sprintf("ufw %s %d/tcp", rule, sshPort),
		"ufw --force enable",
	}
}

func (m *FirewallModule) Plan(cfg *profile.FirewallSection, sshPort int) []string {
	cmds := []string{"apt-get install -y ufw"}
	return append(cmds, m.commands(cfg, sshPort)...)
}

func (m *FirewallModule) Verify(cfg *profile.FirewallSection, sshPort int) *VerifyResult {
	result := &VerifyResult{ModuleName: m.Name()}

	statusResult, err := system.Run("ufw", "status")
	if err != nil {
		result.Checks = append(result.Checks, Check{
			Name:   "ufw accessible",
			Status: StatusFail,
			Actual: err.Error(),
		})
		return result
	}

	statusOutput := statusResult.Stdout
	isActive := strings.Contains(statusOutput, "Status: active")

	result.Checks = append(result.Checks, Check{
		Name:     "enabled",
		Status:   boolCheck(isActive),
		Expected: "active",
		Actual:   ternary(isActive, "active", "inactive"),
	})

	if !isActive {
		return result
	}

	rules := countPortRules(statusOutput, sshPort)
	result.Checks = append(result.Checks, Check{
		Name:     fmt.Sprintf("single rule for %d/tcp", sshPort),
		Status:   boolCheck(rules == 1),
		Expected: "1 rule",
		Actual:   fmt.Sprintf("%d rules", rules),
	})

	return result
}

// countPortRules counts the IPv4 rule lines for port/tcp in "ufw status"
// output. The (v6) mirror lines do not count; UFW adds them per rule and
// they disappear once IPv6 is disabled.
func countPortRules(statusOutput string, port int) int {
	target := strconv.Itoa(port) + "/tcp"
	count := 0
	for _, line := range strings.Split(statusOutput, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] == target && !strings.Contains(line, "(v6)") {
			count++
		}
	}
	return count
}
