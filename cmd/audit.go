package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/varnis/lockdown/internal/modules"
	"github.com/varnis/lockdown/internal/system"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Scan the host's hardening state (no profile required)",
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

type auditCheck struct {
	category string
	name     string
	status   int
	detail   string
}

const (
	auditPass = iota
	auditWarn
	auditFail
)

func runAudit(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	osInfo, err := system.DetectOS()
	if err != nil {
		return err
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	catStyle := lipgloss.NewStyle().Bold(true)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	fmt.Println()
	fmt.Println(titleStyle.Render("  Lockdown Audit"))
	fmt.Println(subtitleStyle.Render("  " + osInfo.PrettyName))
	fmt.Println()

	var checks []auditCheck
	checks = append(checks, auditUpdates()...)
	checks = append(checks, auditSSH()...)
	checks = append(checks, auditFirewall()...)
	checks = append(checks, auditFail2Ban()...)
	checks = append(checks, auditIPv6()...)

	totalPass, totalWarn, totalFail := 0, 0, 0
	currentCat := ""

	for _, c := range checks {
		if c.category != currentCat {
			if currentCat != "" {
				fmt.Println()
			}
			currentCat = c.category
			fmt.Printf("  %s\n", catStyle.Render(currentCat))
		}

		var icon string
		switch c.status {
		case auditPass:
			totalPass++
			icon = passStyle.Render("✓")
		case auditWarn:
			totalWarn++
			icon = warnStyle.Render("⚠")
		case auditFail:
			totalFail++
			icon = failStyle.Render("✗")
		}

		if c.detail != "" {
			fmt.Printf("    %s %s — %s\n", icon, c.name, c.detail)
		} else {
			fmt.Printf("    %s %s\n", icon, c.name)
		}
	}

	fmt.Println()
	total := totalPass + totalWarn + totalFail
	if totalFail == 0 && totalWarn == 0 {
		fmt.Println(passStyle.Render(fmt.Sprintf("  All %d checks passed.", total)))
	} else {
		parts := []string{fmt.Sprintf("%d passed", totalPass)}
		if totalWarn > 0 {
			parts = append(parts, warnStyle.Render(fmt.Sprintf("%d warnings", totalWarn)))
		}
		if totalFail > 0 {
			parts = append(parts, failStyle.Render(fmt.Sprintf("%d issues", totalFail)))
		}
		fmt.Println("  " + strings.Join(parts, ", "))
	}
	fmt.Println()

	if totalFail > 0 {
		fail()
	}
	return nil
}

func auditUpdates() []auditCheck {
	const cat = "Package Updates"

	result, err := system.Run("apt-get", "-s", "dist-upgrade")
	if err != nil {
		return []auditCheck{{cat, "apt accessible", auditFail, err.Error()}}
	}
	if result.ExitCode != 0 {
		return []auditCheck{{cat, "apt accessible", auditFail, result.Stderr}}
	}

	pending := 0
	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.HasPrefix(line, "Inst ") {
			pending++
		}
	}

	if pending == 0 {
		return []auditCheck{{cat, "packages up to date", auditPass, ""}}
	}
	return []auditCheck{{cat, "packages up to date", auditWarn, fmt.Sprintf("%d upgrades pending", pending)}}
}

func auditSSH() []auditCheck {
	const cat = "SSH"
	var checks []auditCheck

	data, err := os.ReadFile("/etc/ssh/sshd_config")
	if err != nil {
		return []auditCheck{{cat, "sshd_config readable", auditFail, err.Error()}}
	}
	content := string(data)

	port, _ := modules.ActiveDirective(content, "Port")
	if port == "" || port == "22" {
		checks = append(checks, auditCheck{cat, "SSH off port 22", auditWarn, "still on the default port"})
	} else {
		checks = append(checks, auditCheck{cat, "SSH off port 22", auditPass, "port " + port})
	}

	passAuth, _ := modules.ActiveDirective(content, "PasswordAuthentication")
	if strings.EqualFold(passAuth, "no") {
		checks = append(checks, auditCheck{cat, "password auth disabled", auditPass, ""})
	} else {
		checks = append(checks, auditCheck{cat, "password auth disabled", auditFail, "PasswordAuthentication is " + orDefault(passAuth, "unset (defaults to yes)")})
	}

	rootLogin, _ := modules.ActiveDirective(content, "PermitRootLogin")
	switch {
	case strings.EqualFold(rootLogin, "no"),
		strings.EqualFold(rootLogin, "prohibit-password"),
		strings.EqualFold(rootLogin, "without-password"):
		checks = append(checks, auditCheck{cat, "root password login blocked", auditPass, rootLogin})
	default:
		checks = append(checks, auditCheck{cat, "root password login blocked", auditFail, "PermitRootLogin is " + orDefault(rootLogin, "unset")})
	}

	return checks
}

func auditFirewall() []auditCheck {
	const cat = "UFW Firewall"

	if !system.IsInstalled("ufw") {
		return []auditCheck{{cat, "installed", auditFail, "ufw not installed"}}
	}

	result, err := system.Run("ufw", "status")
	if err != nil {
		return []auditCheck{{cat, "status", auditFail, err.Error()}}
	}
	if !strings.Contains(result.Stdout, "Status: active") {
		return []auditCheck{{cat, "enabled", auditFail, "firewall is inactive"}}
	}

	return []auditCheck{{cat, "enabled", auditPass, ""}}
}

func auditFail2Ban() []auditCheck {
	const cat = "fail2ban"
	var checks []auditCheck

	if !system.IsInstalled("fail2ban") {
		return []auditCheck{{cat, "installed", auditFail, "fail2ban not installed"}}
	}

	if system.IsServiceActive("fail2ban") {
		checks = append(checks, auditCheck{cat, "service running", auditPass, ""})
	} else {
		checks = append(checks, auditCheck{cat, "service running", auditFail, "inactive"})
	}

	if _, err := os.Stat("/etc/fail2ban/jail.d/sshd.conf"); err == nil {
		checks = append(checks, auditCheck{cat, "sshd jail configured", auditPass, ""})
	} else {
		checks = append(checks, auditCheck{cat, "sshd jail configured", auditWarn, "no jail.d/sshd.conf"})
	}

	return checks
}

func auditIPv6() []auditCheck {
	const cat = "IPv6"

	result, err := system.Run("sysctl", "-n", "net.ipv6.conf.all.disable_ipv6")
	if err != nil || result.ExitCode != 0 {
		// Kernel built without IPv6; nothing to disable.
		return []auditCheck{{cat, "disabled", auditPass, "kernel has no IPv6"}}
	}

	if strings.TrimSpace(result.Stdout) == "1" {
		return []auditCheck{{cat, "disabled", auditPass, ""}}
	}
	return []auditCheck{{cat, "disabled", auditWarn, "IPv6 is enabled"}}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
