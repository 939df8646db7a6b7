package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/varnis/lockdown/internal/modules"
	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check host state against the applied profile",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	osInfo, err := system.DetectOS()
	if err != nil {
		return err
	}

	prof, err := profile.Load()
	if err != nil {
		return fmt.Errorf("cannot load profile from %s: %w", profile.Path, err)
	}
	if prof == nil {
		return fmt.Errorf("no profile found at %s — run 'lockdown init' first", profile.Path)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	moduleStyle := lipgloss.NewStyle().Bold(true)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	fmt.Println()
	fmt.Println(titleStyle.Render("  Lockdown Verify"))
	fmt.Println(subtitleStyle.Render("  " + osInfo.PrettyName))
	fmt.Println()

	sshPort := 22
	if prof.SSH != nil {
		sshPort = prof.SSH.Port
	}

	var results []*modules.VerifyResult

	if prof.Updates != nil {
		m := &modules.UpdatesModule{}
		results = append(results, m.Verify(prof.Updates))
	}
	if prof.SSH != nil {
		m := &modules.SSHModule{}
		results = append(results, m.Verify(prof.SSH))
	}
	if prof.Firewall != nil {
		m := &modules.FirewallModule{}
		results = append(results, m.Verify(prof.Firewall, sshPort))
	}
	if prof.Fail2Ban != nil {
		m := &modules.Fail2BanModule{}
		results = append(results, m.Verify(prof.Fail2Ban, sshPort))
	}
	if prof.IPv6 != nil {
		m := &modules.IPv6Module{}
		results = append(results, m.Verify(prof.IPv6))
	}

	for _, r := range results {
		fmt.Printf("  %s\n", moduleStyle.Render(r.ModuleName))
		for _, c := range r.Checks {
			var icon, detail string
			switch c.Status {
			case modules.StatusPass:
				icon = passStyle.Render("✓")
				detail = c.Name
			case modules.StatusFail:
				icon = failStyle.Render("✗")
				detail = verifyDetail(c)
			case modules.StatusWarn:
				icon = warnStyle.Render("⚠")
				detail = verifyDetail(c)
			}
			fmt.Printf("    %s %s\n", icon, detail)
		}
		fmt.Println()
	}

	passed, warned, failed := tallyResults(results)
	total := passed + warned + failed

	switch {
	case failed == 0 && warned == 0:
		fmt.Println(passStyle.Render(fmt.Sprintf("  All %d checks passed.", total)))
	default:
		parts := []string{fmt.Sprintf("%d/%d checks passed", passed, total)}
		if warned > 0 {
			parts = append(parts, warnStyle.Render(fmt.Sprintf("%d warnings", warned)))
		}
		if failed > 0 {
			parts = append(parts, failStyle.Render(fmt.Sprintf("%d failed", failed)))
		}
		fmt.Println(subtitleStyle.Render("  " + strings.Join(parts, ", ")))
	}
	fmt.Println()

	// Warnings (drifted-but-harmless values, fresh pending updates) are
	// advisory; only hard failures make verify exit non-zero.
	if failed > 0 {
		fail()
	}
	return nil
}

func tallyResults(results []*modules.VerifyResult) (passed, warned, failed int) {
	for _, r := range results {
		for _, c := range r.Checks {
			switch c.Status {
			case modules.StatusPass:
				passed++
			case modules.StatusWarn:
				warned++
			case modules.StatusFail:
				failed++
			}
		}
	}
	return passed, warned, failed
}

func verifyDetail(c modules.Check) string {
	if c.Expected != "" && c.Actual != "" {
		return fmt.Sprintf("%s (expected %s, got %s)", c.Name, c.Expected, c.Actual)
	}
	if c.Actual != "" {
		return fmt.Sprintf("%s: %s", c.Name, c.Actual)
	}
	return c.Name
}
