package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/varnis/lockdown/internal/profile"
	"github.com/varnis/lockdown/internal/system"
)

var applyConfigPath string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a hardening profile from file (non-interactive)",
	Long:  "Apply runs the same hardening as 'lockdown init' but takes its answers\nfrom a JSON or YAML profile instead of prompting.",
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVarP(&applyConfigPath, "config", "c", "", "path to profile file (JSON or YAML)")
	_ = applyCmd.MarkFlagRequired("config")
}

func runApply(cmd *cobra.Command, args []string) error {
	prof, err := profile.LoadFile(applyConfigPath)
	if err != nil {
		return err
	}
	if err := prof.Validate(); err != nil {
		return err
	}
	if prof.SSH != nil && prof.SSH.AuthorizedKey == "" {
		return fmt.Errorf("profile enables SSH hardening without an authorized key — refusing to lock you out")
	}

	if DryRun {
		fmt.Println("Dry run — would apply profile from", applyConfigPath)
		return nil
	}

	if err := system.RequireRoot(); err != nil {
		return err
	}
	if _, err := system.DetectOS(); err != nil {
		return err
	}

	results := applyProfile(prof)

	allPassed := true
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.name, r.err)
			allPassed = false
		} else {
			fmt.Printf("✓ %s\n", r.name)
		}
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("cannot save profile: %w", err)
	}

	if !allPassed {
		fail()
	}
	return nil
}
