package modules

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

const jailPath = "/etc/fail2ban/jail.d/sshd.conf"

type Fail2BanModule struct{}

func (m *Fail2BanModule) Name() string        { return "fail2ban" }
func (m *Fail2BanModule) Description() string { return "Ban IPs after repeated failed SSH logins" }

func (m *Fail2BanModule) Apply(cfg *profile.Fail2BanSection, sshPort int) error {
	if !system.IsInstalled("fail2ban") {
		if err := system.AptInstall("fail2ban"); err != nil {
			return fmt.Errorf("failed to install fail2ban: %w", err)
		}
	}

	if _, err := system.BackupFile(jailPath); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	if err := os.WriteFile(jailPath, []byte(renderJail(cfg, sshPort)), 0644); err != nil {
		return fmt.Errorf("cannot write sshd jail: %w", err)
	}

	if err := system.ServiceAction("fail2ban", "enable"); err != nil {
		return err
	}

	return system.ServiceAction("fail2ban", "restart")
}

// renderJail produces the drop-in jail for the sshd filter. The journal
// match pins the Ubuntu unit name; without it fail2ban watches
// sshd.service and sees nothing.
func renderJail(cfg *profile.Fail2BanSection, sshPort int) string {
	return fmt.Sprintf(`[sshd]
enabled = true
port = %d
filter = sshd
backend = systemd
journalmatch = _SYSTEMD_UNIT=ssh.service + _COMM=sshd
maxretry = %d
bantime = %d
findtime = 600
`, sshPort, cfg.MaxRetry, cfg.BanTime)
}

func (m *Fail2BanModule) Plan(cfg *profile.Fail2BanSection, sshPort int) []string {
	return []string{
		"apt-get install -y fail2ban",
		fmt.Sprintf("write %s (port=%d, maxretry=%d, bantime=%d)", jailPath, sshPort, cfg.MaxRetry, cfg.BanTime),
		"systemctl enable fail2ban",
		"systemctl restart fail2ban",
	}
}

func (m *Fail2BanModule) Verify(cfg *profile.Fail2BanSection, sshPort int) *VerifyResult {
	result := &VerifyResult{ModuleName: m.Name()}

	active := system.IsServiceActive("fail2ban")
	result.Checks = append(result.Checks, Check{
		Name:     "service running",
		Status:   boolCheck(active),
		Expected: "active",
		Actual:   ternary(active, "active", "inactive"),
	})

	data, err := os.ReadFile(jailPath)
	if err != nil {
		result.Checks = append(result.Checks, Check{
			Name:   "sshd jail file",
			Status: StatusFail,
			Actual: "not found",
		})
		return result
	}

	content := string(data)

	port := extractJailValue(content, "port")
	result.Checks = append(result.Checks, Check{
		Name:     "jail port matches SSH port",
		Status:   boolCheck(port == strconv.Itoa(sshPort)),
		Expected: strconv.Itoa(sshPort),
		Actual:   port,
	})

	if maxRetry := extractJailValue(content, "maxretry"); maxRetry != "" {
		actual, _ := strconv.Atoi(maxRetry)
		status := StatusPass
		if actual != cfg.MaxRetry {
			status = StatusWarn
		}
		result.Checks = append(result.Checks, Check{
			Name:     "maxretry",
			Status:   status,
			Expected: strconv.Itoa(cfg.MaxRetry),
			Actual:   maxRetry,
		})
	}

	if banTime := extractJailValue(content, "bantime"); banTime != "" {
		actual, _ := strconv.Atoi(banTime)
		status := StatusPass
		if actual != cfg.BanTime {
			status = StatusWarn
		}
		result.Checks = append(result.Checks, Check{
			Name:     "bantime",
			Status:   status,
			Expected: strconv.Itoa(cfg.BanTime),
			Actual:   banTime,
		})
	}

	statusResult, err := system.Run("fail2ban-client", "status", "sshd")
	if err == nil {
		jailActive := statusResult.ExitCode == 0
		result.Checks = append(result.Checks, Check{
			Name:     "sshd jail loaded",
			Status:   boolCheck(jailActive),
			Expected: "loaded",
			Actual:   ternary(jailActive, "loaded", "not loaded"),
		})
	}

	return result
}

func extractJailValue(content, key string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key) {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}
