package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varnis/lockdown/internal/modules"
	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively harden this server",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

var (
	logoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	checkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
)

func wizardTheme() *huh.Theme {
	t := huh.ThemeCharm()
	t.Focused.Base = lipgloss.NewStyle().PaddingLeft(2)
	t.Blurred.Base = lipgloss.NewStyle().PaddingLeft(2)
	t.Focused.Description = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return t
}

type answeredStep struct {
	section string
	label   string
	val     string
}

func renderHeader(osLabel string, current, total int, answered []answeredStep) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(logoStyle.Render("  Lockdown"))
	fmt.Println(dimStyle.Render("  " + osLabel))
	fmt.Println()

	if total > 0 {
		fmt.Printf("  %s\n", stepStyle.Render(fmt.Sprintf("Step %d of %d", current, total)))
	}

	if len(answered) > 0 {
		fmt.Println()
		fmt.Println(dividerStyle.Render("  " + strings.Repeat("─", 40)))

		currentSection := ""
		for _, a := range answered {
			if a.section != currentSection {
				currentSection = a.section
				fmt.Printf("\n  %s\n", dimStyle.Render(currentSection))
			}
			fmt.Printf("    %s  %s  %s\n",
				checkStyle.Render("✓"),
				dimStyle.Render(a.label),
				valueStyle.Render(a.val),
			)
		}

		fmt.Println()
		fmt.Println(dividerStyle.Render("  " + strings.Repeat("─", 40)))
	}

	fmt.Println()
}

func runForm(f huh.Field) error {
	return huh.NewForm(huh.NewGroup(f)).WithTheme(wizardTheme()).Run()
}

func runInit(cmd *cobra.Command, args []string) error {
	var err error

	if !DryRun {
		if err = system.RequireRoot(); err != nil {
			return err
		}
	}

	osInfo := &system.OSInfo{PrettyName: "dry-run mode"}
	if !DryRun {
		osInfo, err = system.DetectOS()
		if err != nil {
			return err
		}
		if !osInfo.Supported() {
			fmt.Println(warnStyle.Render("  ⚠  Built for Ubuntu 24.04 — detected " + osInfo.PrettyName + ". Proceeding anyway."))
		}
	}

	prof := profile.Default()
	renderHeader(osInfo.PrettyName, 0, 0, nil)

	var proceed bool
	var selectedFeatures []string

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to Lockdown").
				Description(
					"This wizard hardens a freshly provisioned Ubuntu 24.04 server:\n"+
						"package updates, SSH, firewall, fail2ban, and IPv6 off.\n\n"+
						"It rewrites system configuration and restarts the SSH daemon."),
			huh.NewConfirm().
				Title("Proceed with hardening this server?").
				Value(&proceed).
				Affirmative("Yes").
				Negative("No"),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select hardening steps").
				Description("All are recommended. Deselect any you want to skip.").
				Options(
					huh.NewOption("Package Updates", "updates").Selected(true),
					huh.NewOption("SSH (custom port, key-only root)", "ssh").Selected(true),
					huh.NewOption("UFW Firewall", "firewall").Selected(true),
					huh.NewOption("fail2ban", "fail2ban").Selected(true),
					huh.NewOption("Disable IPv6", "ipv6").Selected(true),
				).
				Value(&selectedFeatures),
		).WithHideFunc(func() bool { return !proceed }),
	).WithTheme(wizardTheme()).Run()
	if err != nil {
		return err
	}

	if !proceed {
		fmt.Println("\n  Cancelled. No changes were made.")
		return nil
	}

	if len(selectedFeatures) == 0 {
		fmt.Println("No steps selected. Nothing to do.")
		return nil
	}

	sshPortStr := strconv.Itoa(prof.SSH.Port)
	maxRetryStr := strconv.Itoa(prof.Fail2Ban.MaxRetry)
	banTimeStr := strconv.Itoa(prof.Fail2Ban.BanTime)
	sshKey := ""

	type wizardStep struct {
		section string
		label   string
		field   huh.Field
		value   func() string
	}

	var steps []wizardStep

	if contains(selectedFeatures, "ssh") {
		steps = append(steps,
			wizardStep{
				section: "SSH",
				label:   "SSH port",
				field: huh.NewInput().
					Title("SSH port").
					Description(
						"Moving SSH off port 22 cuts automated scan noise dramatically.\n" +
							"Pick an unprivileged port.\n\n" +
							"Default: 2222").
					Value(&sshPortStr).
					Validate(func(s string) error {
						port, err := strconv.Atoi(strings.TrimSpace(s))
						if err != nil || port < 1024 || port > 65535 {
							return fmt.Errorf("enter a port between 1024 and 65535")
						}
						return nil
					}),
				value: func() string { return sshPortStr },
			},
			wizardStep{
				section: "SSH",
				label:   "Root public key",
				field: huh.NewText().
					Title("Paste the public key for root login").
					Description(
						"Password logins are being disabled, so this key becomes the only\n" +
							"way in. Paste the contents of your public key file\n" +
							"(e.g. ~/.ssh/id_ed25519.pub). Leaving it empty aborts the run.").
					Value(&sshKey).
					Validate(func(s string) error {
						s = strings.TrimSpace(s)
						if s == "" {
							return nil // empty aborts after the form, not here
						}
						if !profile.LooksLikePublicKey(s) {
							return fmt.Errorf("doesn't look like a public key (should start with ssh-, ecdsa- or sk-)")
						}
						return nil
					}),
				value: func() string {
					k := strings.TrimSpace(sshKey)
					if len(k) > 30 {
						k = k[:30] + "…"
					}
					return k
				},
			},
		)
	}

	if contains(selectedFeatures, "firewall") {
		steps = append(steps, wizardStep{
			section: "UFW Firewall",
			label:   "Rate-limit SSH",
			field: huh.NewConfirm().
				Title("Rate-limit the SSH port?").
				Description(
					"UFW's limit rule allows at most 6 connections per 30 seconds from\n" +
						"one address, slowing brute-force attempts without affecting\n" +
						"normal use.\n\n" +
						"Default: Yes").
				Value(&prof.Firewall.RateLimitSSH),
			value: func() string { return ternaryStr(prof.Firewall.RateLimitSSH, "yes", "no") },
		})
	}

	if contains(selectedFeatures, "fail2ban") {
		steps = append(steps,
			wizardStep{
				section: "fail2ban",
				label:   "Max retries",
				field: huh.NewInput().
					Title("Failed logins before a ban").
					Description("After this many failed SSH logins from one IP, fail2ban bans it.\n\nDefault: 3").
					Value(&maxRetryStr).
					Validate(func(s string) error {
						n, err := strconv.Atoi(strings.TrimSpace(s))
						if err != nil || n < 1 {
							return fmt.Errorf("enter a positive number")
						}
						return nil
					}),
				value: func() string { return maxRetryStr },
			},
			wizardStep{
				section: "fail2ban",
				label:   "Ban time",
				field: huh.NewInput().
					Title("Ban time (seconds)").
					Description("How long a banned IP stays blocked.\n\nDefault: 3600 (1 hour)").
					Value(&banTimeStr).
					Validate(func(s string) error {
						n, err := strconv.Atoi(strings.TrimSpace(s))
						if err != nil || n < 60 {
							return fmt.Errorf("enter at least 60 seconds")
						}
						return nil
					}),
				value: func() string { return banTimeStr + "s" },
			},
		)
	}

	var answered []answeredStep
	for i, s := range steps {
		renderHeader(osInfo.PrettyName, i+1, len(steps), answered)
		if err := runForm(s.field); err != nil {
			return err
		}
		answered = append(answered, answeredStep{section: s.section, label: s.label, val: s.value()})
	}

	if contains(selectedFeatures, "ssh") && strings.TrimSpace(sshKey) == "" {
		return fmt.Errorf("no public key provided — aborting, nothing was changed")
	}

	prof.SSH.Port, _ = strconv.Atoi(strings.TrimSpace(sshPortStr))
	prof.SSH.AuthorizedKey = strings.TrimSpace(sshKey)
	prof.Fail2Ban.MaxRetry, _ = strconv.Atoi(strings.TrimSpace(maxRetryStr))
	prof.Fail2Ban.BanTime, _ = strconv.Atoi(strings.TrimSpace(banTimeStr))

	if !contains(selectedFeatures, "updates") {
		prof.Updates = nil
	}
	if !contains(selectedFeatures, "ssh") {
		prof.SSH = nil
	}
	if !contains(selectedFeatures, "firewall") {
		prof.Firewall = nil
	}
	if !contains(selectedFeatures, "fail2ban") {
		prof.Fail2Ban = nil
	}
	if !contains(selectedFeatures, "ipv6") {
		prof.IPv6 = nil
	}

	renderHeader(osInfo.PrettyName, 0, 0, answered)

	var confirm bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Review your configuration").
				Description(buildSummary(prof)),
			huh.NewConfirm().
				Title("Apply these changes?").
				Value(&confirm).
				Affirmative("Yes, harden this server").
				Negative("Cancel"),
		),
	).WithTheme(wizardTheme()).Run()
	if err != nil {
		return err
	}

	if !confirm {
		fmt.Println("\n  Cancelled. No changes were made.")
		return nil
	}

	if DryRun {
		fmt.Println()
		fmt.Println("  Dry run — no changes applied.")
		for _, f := range selectedFeatures {
			fmt.Printf("  %s %s (skipped)\n", checkStyle.Render("✓"), f)
		}
		return nil
	}

	zap.L().Info("starting hardening run", zap.Strings("steps", selectedFeatures))

	var results []stepResult
	_ = spinner.New().
		Title("Applying hardening configuration...").
		Action(func() { results = applyProfile(prof) }).
		Run()

	if err := profile.Save(prof); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save profile to %s: %v\n", profile.Path, err)
	}

	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("  ✗ %s: %v\n", r.name, r.err)
			allPassed = false
		} else {
			fmt.Printf("  %s %s\n", checkStyle.Render("✓"), r.name)
		}
	}

	fmt.Println()
	if allPassed {
		fmt.Println("  Server hardening complete.")
	} else {
		fmt.Println("  Some steps failed. Review the errors above and /var/log/lockdown.log.")
	}

	if prof.SSH != nil {
		fmt.Println()
		fmt.Println(warnStyle.Render("  ⚠  Test SSH access in a new terminal before closing this session!"))
		fmt.Printf(dimStyle.Render("     ssh -p %d root@host\n"), prof.SSH.Port)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("  Run 'lockdown verify' to re-check this configuration later."))
	fmt.Println()

	if !allPassed {
		fail()
	}
	return nil
}

type stepResult struct {
	name string
	err  error
}

// applyProfile runs the selected modules in dependency order: packages
// first so ufw/fail2ban install cleanly, SSH before the firewall so the
// rule matches the final port.
func applyProfile(prof *profile.Profile) []stepResult {
	var results []stepResult

	sshPort := 22
	if prof.SSH != nil {
		sshPort = prof.SSH.Port
	}

	if prof.Updates != nil {
		m := &modules.UpdatesModule{}
		results = append(results, stepResult{m.Name(), m.Apply(prof.Updates)})
	}
	if prof.SSH != nil {
		m := &modules.SSHModule{}
		results = append(results, stepResult{m.Name(), m.Apply(prof.SSH)})
	}
	if prof.Firewall != nil {
		m := &modules.FirewallModule{}
		results = append(results, stepResult{m.Name(), m.Apply(prof.Firewall, sshPort)})
	}
	if prof.Fail2Ban != nil {
		m := &modules.Fail2BanModule{}
		results = append(results, stepResult{m.Name(), m.Apply(prof.Fail2Ban, sshPort)})
	}
	if prof.IPv6 != nil {
		m := &modules.IPv6Module{}
		results = append(results, stepResult{m.Name(), m.Apply(prof.IPv6)})
	}

	for _, r := range results {
		if r.err != nil {
			zap.L().Error("step failed", zap.String("step", r.name), zap.Error(r.err))
		} else {
			zap.L().Info("step applied", zap.String("step", r.name))
		}
	}

	return results
}

func buildSummary(prof *profile.Profile) string {
	var lines []string

	if prof.Updates != nil {
		lines = append(lines, "Package Updates", "  apt-get update + dist-upgrade", "")
	}
	if prof.SSH != nil {
		lines = append(lines, "SSH")
		lines = append(lines, fmt.Sprintf("  Port:           %d", prof.SSH.Port))
		lines = append(lines, "  Root login:     key-only")
		lines = append(lines, "  Password auth:  disabled")
		lines = append(lines, "")
	}
	if prof.Firewall != nil {
		lines = append(lines, "UFW Firewall")
		lines = append(lines, "  Default:        deny incoming, allow outgoing")
		if prof.SSH != nil {
			lines = append(lines, fmt.Sprintf("  SSH port rule:  %s %d/tcp",
				ternaryStr(prof.Firewall.RateLimitSSH, "limit", "allow"), prof.SSH.Port))
		}
		lines = append(lines, "")
	}
	if prof.Fail2Ban != nil {
		lines = append(lines, "fail2ban")
		lines = append(lines, fmt.Sprintf("  Max retries:    %d", prof.Fail2Ban.MaxRetry))
		lines = append(lines, fmt.Sprintf("  Ban time:       %ds", prof.Fail2Ban.BanTime))
		lines = append(lines, "")
	}
	if prof.IPv6 != nil {
		lines = append(lines, "IPv6", "  disabled via /etc/sysctl.conf")
	}

	return strings.Join(lines, "\n")
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func ternaryStr(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
