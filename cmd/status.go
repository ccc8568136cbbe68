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

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current deployment's access URL",
	Long: `Look up the deployed instance's external IP and print its access URL.
Falls back to the locally recorded deployment when the live lookup fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		client := gcloud.NewClient()
		target, err := resolveTarget(ctx, client)
		if err != nil {
			log.Fatalf("Error resolving deployment target: %v", err)
		}

		ip, err := client.InstanceExternalIP(ctx, target)
		if err != nil || ip == "" {
			// Live lookup failed; try the recorded deployment.
			if records, openErr := history.Open(); openErr == nil {
				defer records.Close()
				if dep, getErr := records.GetDeployment(config.DefaultInstanceName); getErr == nil && dep.ExternalIP != "" {
					fmt.Printf("Neural Symphony (recorded): http://%s\n", dep.ExternalIP)
					return
				}
			}
			log.Fatalf("Could not determine instance IP: %v", err)
		}

		fmt.Printf("Neural Symphony: http://%s\n", ip)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
