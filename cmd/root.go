/*
Copyright © 2025 NEURAL SYMPHONY
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/deploy"
	"github.com/neural-symphony/symphonyctl/pkg/gcloud"
	"github.com/neural-symphony/symphonyctl/pkg/history"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "symphonyctl",
	Short: "Deploy Neural Symphony to a GPU instance on Google Compute Engine",
	Long: `symphonyctl automates one-click deployment of the Neural Symphony inference
stack to a GPU instance on Google Compute Engine.

Running it with no arguments provisions an L4-backed instance, installs
drivers and model dependencies via a startup script, waits for the bootstrap
sentinel, and prints access URLs and management commands.

Key Features:
  - Provision a g2-standard-8 instance with an attached L4 GPU
  - Bootstrap drivers, conda, the gpt-oss-20b model, and an nginx proxy
  - Poll for bootstrap completion with a bounded retry budget
  - Serve chat completions locally via 'symphonyctl serve'

Use "symphonyctl [command] --help" for more information about a command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runDeploy()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func runDeploy() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := gcloud.NewClient()
	target, err := resolveTarget(ctx, client)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		if errors.Is(err, gcloud.ErrToolingUnavailable) {
			fmt.Println("Please install Google Cloud CLI: https://cloud.google.com/sdk/docs/install")
		}
		os.Exit(1)
	}
	fmt.Printf("[SUCCESS] Using project: %s\n", target.Project)

	deployer := deploy.NewDeployer(client, target)
	if records, err := history.Open(); err == nil {
		defer records.Close()
		deployer.Records = records
	} else {
		fmt.Printf("[WARNING] Deployment history unavailable: %v\n", err)
	}

	err = deployer.Deploy(ctx)
	switch {
	case err == nil:
		return
	case errors.Is(err, deploy.ErrDeclined):
		fmt.Println("Keeping existing instance. Nothing to do.")
		return
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		fmt.Println("[ERROR] Deployment cancelled")
		os.Exit(1)
	default:
		fmt.Printf("[ERROR] Deployment failed: %v\n", err)
		os.Exit(1)
	}
}

// resolveTarget checks gcloud tooling and determines the project, asking the
// operator when gcloud has none configured.
func resolveTarget(ctx context.Context, client *gcloud.Client) (gcloud.Target, error) {
	project, err := client.CheckAuth(ctx)
	if err != nil {
		return gcloud.Target{}, err
	}
	if project == "" {
		project = os.Getenv(config.ProjectEnvVar)
	}
	if project == "" {
		fmt.Print("Enter your Google Cloud Project ID: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		project = strings.TrimSpace(line)
	}
	if project == "" {
		return gcloud.Target{}, gcloud.ErrNoProject
	}
	return gcloud.DefaultTarget(project), nil
}
