/*
Copyright © 2025 NEURAL SYMPHONY
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/gcloud"
	"github.com/neural-symphony/symphonyctl/pkg/history"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the deployed instance",
	Long: `Delete the Neural Symphony instance unconditionally and remove the local
deployment record. Issues exactly one deletion request whether or not the
instance currently exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		client := gcloud.NewClient()
		target, err := resolveTarget(ctx, client)
		if err != nil {
			log.Fatalf("Error resolving deployment target: %v", err)
		}

		fmt.Println("Cleaning up resources...")
		if err := client.DeleteInstance(ctx, target); err != nil {
			fmt.Printf("[WARNING] %v\n", err)
		}

		if records, err := history.Open(); err == nil {
			defer records.Close()
			if err := records.DeleteDeployment(config.DefaultInstanceName); err != nil {
				fmt.Printf("[WARNING] Could not remove deployment record: %v\n", err)
			}
		}

		fmt.Println("Cleanup completed")
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
