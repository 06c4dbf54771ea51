package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage your license",
	Long:  `Show, activate, or remove the license that unlocks PRO features.`,
	RunE:  runLicenseStatus,
}

var licenseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show license status",
	RunE:  runLicenseStatus,
}

var licenseSetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Activate a license key",
	Long: `Activate a license key of the form PB-XXXX-XXXX-XXXX-XXXX.

Examples:
  promptpicker license set PB-AB12-CD34-EF56-0000
  promptpicker license set pb-ab12-cd34-ef56-0000 --email me@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runLicenseSet,
}

var licenseRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm"},
	Short:   "Remove the license and return to the free plan",
	RunE:    runLicenseRemove,
}

var licenseDemoCmd = &cobra.Command{
	Use:   "demo-key",
	Short: "Print a demo key that unlocks PRO for a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), license.DemoKey())
		return nil
	},
}

var licenseEmail string

func init() {
	licenseSetCmd.Flags().StringVarP(&licenseEmail, "email", "e", "", "Email the license was bought with")

	licenseCmd.AddCommand(licenseStatusCmd)
	licenseCmd.AddCommand(licenseSetCmd)
	licenseCmd.AddCommand(licenseRemoveCmd)
	licenseCmd.AddCommand(licenseDemoCmd)
}

func runLicenseStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.lib.LoadAll(context.Background())
	if err != nil {
		return err
	}
	printLicense(cmd, snap.License)
	printLimit(cmd.OutOrStdout(), snap)
	return nil
}

func runLicenseSet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "🔄 Activating license...")
	ack, err := a.mutate(context.Background(), prompts.SetLicense{Key: args[0], Email: licenseEmail})
	if err != nil {
		return err
	}

	if ack.License == nil || ack.License.Tier != model.TierPro {
		fmt.Fprintln(cmd.OutOrStdout(), "⚠️  Key saved, but it does not unlock PRO.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✅ PRO activated!")
	printLicense(cmd, *ack.License)
	return nil
}

func runLicenseRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.mutate(context.Background(), prompts.RemoveLicense{}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ License removed. You are on the free plan.")
	return nil
}

func printLicense(cmd *cobra.Command, lic model.License) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🔑 Plan: %s\n", lic.Tier)
	if lic.Key != "" {
		fmt.Fprintf(out, "   Key: %s\n", lic.Key)
	}
	if lic.Email != "" {
		fmt.Fprintf(out, "   Email: %s\n", lic.Email)
	}
	if lic.ExpiresAt != nil {
		fmt.Fprintf(out, "   Expires: %s\n", lic.ExpiresAt.Local().Format("Jan 2, 2006"))
	}
	if lic.Key != "" && !lic.IsValid {
		fmt.Fprintln(out, "   ⚠️  This license is not valid or has expired.")
	}
}
