package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Manage the published services list",
}

var servicesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate services.json when it is older than SERVICES_LIST_TTL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		application, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.RefreshServices.Execute(cmd.Context(), force)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.AddCommand(servicesRefreshCmd)

	servicesRefreshCmd.Flags().Bool("force", false, "Refresh regardless of the list age")
}
