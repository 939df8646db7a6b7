package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/varnis/lockdown/internal/modules"
	"github.com/varnis/lockdown/internal/profile"
)

var planConfigPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what applying a profile would do, without doing it",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "", "path to profile file (JSON or YAML); defaults to the saved profile")
}

func runPlan(cmd *cobra.Command, args []string) error {
	var prof *profile.Profile
	var err error

	if planConfigPath != "" {
		prof, err = profile.LoadFile(planConfigPath)
	} else {
		prof, err = profile.Load()
	}
	if err != nil {
		return err
	}
	if prof == nil {
		return fmt.Errorf("no profile to plan from — pass --config or run 'lockdown init'")
	}
	if err := prof.Validate(); err != nil {
		return err
	}

	headStyle := lipgloss.NewStyle().Bold(true)
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	sshPort := 22
	if prof.SSH != nil {
		sshPort = prof.SSH.Port
	}

	type planned struct {
		name string
		cmds []string
	}
	var plans []planned

	if prof.Updates != nil {
		m := &modules.UpdatesModule{}
		plans = append(plans, planned{m.Name(), m.Plan(prof.Updates)})
	}
	if prof.SSH != nil {
		m := &modules.SSHModule{}
		plans = append(plans, planned{m.Name(), m.Plan(prof.SSH)})
	}
	if prof.Firewall != nil {
		m := &modules.FirewallModule{}
		plans = append(plans, planned{m.Name(), m.Plan(prof.Firewall, sshPort)})
	}
	if prof.Fail2Ban != nil {
		m := &modules.Fail2BanModule{}
		plans = append(plans, planned{m.Name(), m.Plan(prof.Fail2Ban, sshPort)})
	}
	if prof.IPv6 != nil {
		m := &modules.IPv6Module{}
		plans = append(plans, planned{m.Name(), m.Plan(prof.IPv6)})
	}

	fmt.Println()
	for _, p := range plans {
		fmt.Printf("  %s\n", headStyle.Render(p.name))
		for _, c := range p.cmds {
			fmt.Printf("    %s\n", cmdStyle.Render(c))
		}
		fmt.Println()
	}

	return nil
}
