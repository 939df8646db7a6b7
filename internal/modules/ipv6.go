package modules

import (
	"fmt"
	"os"
	"strings"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

const sysctlConfPath = "/etc/sysctl.conf"

// The three knobs that switch IPv6 off everywhere, loopback included.
var ipv6Keys = []string{
	"net.ipv6.conf.all.disable_ipv6",
	"net.ipv6.conf.default.disable_ipv6",
	"net.ipv6.conf.lo.disable_ipv6",
}

type IPv6Module struct{}

func (m *IPv6Module) Name() string        { return "Disable IPv6" }
func (m *IPv6Module) Description() string { return "Turn off IPv6 via sysctl" }

func (m *IPv6Module) Apply(cfg *profile.IPv6Section) error {
	if _, err := system.BackupFile(sysctlConfPath); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	data, err := os.ReadFile(sysctlConfPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot read sysctl.conf: %w", err)
	}

	content := appendIPv6Settings(string(data))
	if err := os.WriteFile(sysctlConfPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("cannot write sysctl.conf: %w", err)
	}

	result, err := system.Run("sysctl", "-p")
	if err != nil {
		return fmt.Errorf("sysctl reload failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("sysctl reload failed: %s", result.Stderr)
	}

	return nil
}

// appendIPv6Settings ensures every disable knob is active with value 1:
// an active line carrying any other value is rewritten in place (so a
// stray "= 0" cannot win), missing keys are appended. Commented lines
// stay untouched; the file is the admin's.
func appendIPv6Settings(content string) string {
	var missing []string
	for _, key := range ipv6Keys {
		val, ok := activeSysctlSetting(content, key)
		switch {
		case !ok:
			missing = append(missing, key+" = 1")
		case val != "1":
			content = rewriteSysctlSetting(content, key)
		}
	}
	if len(missing) == 0 {
		return content
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + strings.Join(missing, "\n") + "\n"
}

// activeSysctlSetting returns the value of the first active line setting
// key, and whether such a line exists.
func activeSysctlSetting(content, key string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		name, val, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(name) == key {
			return strings.TrimSpace(val), true
		}
	}
	return "", false
}

// rewriteSysctlSetting forces every active line setting key to "key = 1".
func rewriteSysctlSetting(content, key string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, _, ok := strings.Cut(trimmed, "=")
		if ok && strings.TrimSpace(name) == key {
			lines[i] = key + " = 1"
		}
	}
	return strings.Join(lines, "\n")
}

func (m *IPv6Module) Plan(cfg *profile.IPv6Section) []string {
	return []string{
		fmt.Sprintf("append %d disable_ipv6 lines to %s", len(ipv6Keys), sysctlConfPath),
		"sysctl -p",
	}
}

func (m *IPv6Module) Verify(cfg *profile.IPv6Section) *VerifyResult {
	result := &VerifyResult{ModuleName: m.Name()}

	for _, key := range ipv6Keys {
		actual := sysctlValue(key)
		result.Checks = append(result.Checks, Check{
			Name:     key,
			Status:   boolCheck(actual == "1"),
			Expected: "1",
			Actual:   actual,
		})
	}

	return result
}

func sysctlValue(key string) string {
	result, err := system.Run("sysctl", "-n", key)
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}
