/*
Copyright © 2025 NEURAL SYMPHONY

deploy.go orchestrates the full bring-up workflow: tooling check, API
enablement, startup script generation, instance creation, firewall setup,
readiness polling, and the final access report.
*/
package deploy

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/gcloud"
	"github.com/neural-symphony/symphonyctl/pkg/history"
)

//go:embed startup.sh
var startupScript string

// requiredServices are enabled before anything else touches the project.
var requiredServices = []string{
	"compute.googleapis.com",
	"storage.googleapis.com",
}

// ErrDeclined is returned when the operator keeps an existing instance
// instead of recreating it. Nothing has been changed when this is returned.
var ErrDeclined = errors.New("deployment declined by operator")

// Deployer runs the bring-up workflow against a single target instance.
type Deployer struct {
	Client *gcloud.Client
	Target gcloud.Target

	// In answers interactive prompts; Out receives progress output.
	In  io.Reader
	Out io.Writer

	// Records is optional; when set, successful deployments are saved.
	Records *history.DB
}

// NewDeployer wires a Deployer to the terminal.
func NewDeployer(client *gcloud.Client, target gcloud.Target) *Deployer {
	return &Deployer{
		Client: client,
		Target: target,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

func (d *Deployer) statusf(format string, args ...interface{}) {
	fmt.Fprintf(d.Out, "[INFO] "+format+"\n", args...)
}

func (d *Deployer) successf(format string, args ...interface{}) {
	fmt.Fprintf(d.Out, "[SUCCESS] "+format+"\n", args...)
}

func (d *Deployer) warnf(format string, args ...interface{}) {
	fmt.Fprintf(d.Out, "[WARNING] "+format+"\n", args...)
}

func (d *Deployer) prompt(question string) string {
	fmt.Fprint(d.Out, question)
	reader := bufio.NewReader(d.In)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// Deploy runs the whole workflow. The startup script file is removed on
// every exit path. Partially created cloud resources are not rolled back on
// failure or interrupt.
func (d *Deployer) Deploy(ctx context.Context) error {
	fmt.Fprintln(d.Out, "Neural Symphony - Quick Cloud Deployment")
	fmt.Fprintln(d.Out, strings.Repeat("=", 50))

	if err := d.enableAPIs(ctx); err != nil {
		return err
	}

	scriptPath, err := d.writeStartupScript()
	if err != nil {
		return err
	}
	defer os.Remove(scriptPath)

	if err := d.createInstance(ctx, scriptPath); err != nil {
		return err
	}

	d.setupFirewall(ctx)
	d.waitForReady(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.setupContinuousDeployment(ctx)
	d.record(ctx)

	reporter := &Reporter{Client: d.Client, Target: d.Target, Out: d.Out}
	return reporter.Report(ctx)
}

func (d *Deployer) enableAPIs(ctx context.Context) error {
	d.statusf("Enabling required APIs...")
	for _, svc := range requiredServices {
		if err := d.Client.EnableService(ctx, d.Target.Project, svc); err != nil {
			return err
		}
	}
	d.successf("APIs enabled")
	return nil
}

func (d *Deployer) writeStartupScript() (string, error) {
	if err := os.WriteFile(config.StartupScriptFile, []byte(startupScript), 0o755); err != nil {
		return "", fmt.Errorf("failed to write startup script: %w", err)
	}
	d.successf("Startup script created")
	return config.StartupScriptFile, nil
}

func (d *Deployer) createInstance(ctx context.Context, scriptPath string) error {
	d.statusf("Creating GPU instance (this takes 2-3 minutes)...")

	if d.Client.InstanceExists(ctx, d.Target) {
		d.warnf("Instance already exists!")
		answer := strings.ToLower(d.prompt("Delete and recreate? (y/N): "))
		if answer != "y" {
			return ErrDeclined
		}
		if err := d.Client.DeleteInstance(ctx, d.Target); err != nil {
			return err
		}
	}

	if err := d.Client.CreateInstance(ctx, d.Target, scriptPath); err != nil {
		if errors.Is(err, gcloud.ErrQuotaExceeded) {
			d.warnf("GPU quota exceeded. Request quota increase at:")
			fmt.Fprintln(d.Out, "https://console.cloud.google.com/iam-admin/quotas")
		}
		return err
	}

	d.successf("Instance created!")
	return nil
}

// setupFirewall is best effort: an existing rule counts as success, and any
// other failure is reported but never aborts the deployment.
func (d *Deployer) setupFirewall(ctx context.Context) {
	d.statusf("Setting up firewall...")
	err := d.Client.CreateFirewallRule(ctx, d.Target.Project)
	switch {
	case err == nil, errors.Is(err, gcloud.ErrAlreadyExists):
		d.successf("Firewall configured")
	default:
		d.warnf("Could not create firewall rule: %v", err)
	}
}

func (d *Deployer) waitForReady(ctx context.Context) {
	d.statusf("Waiting for setup to complete...")
	d.statusf("This will take 10-15 minutes (downloading 40GB model)...")

	check := func(ctx context.Context) error {
		_, err := d.Client.RunRemote(ctx, d.Target,
			fmt.Sprintf("test -f %s", config.SentinelPath), config.PollAttemptTimeout)
		return err
	}

	poller := NewPoller(check)
	poller.Progress = func(attempt int) {
		d.statusf("Still setting up... (%d/15 minutes)", attempt/config.PollProgressEvery)
	}

	if poller.Wait(ctx) {
		d.successf("Setup completed!")
		return
	}
	if ctx.Err() == nil {
		d.warnf("Setup may still be in progress. Check manually.")
	}
}

// setupContinuousDeployment optionally clones an application repo onto the
// instance and builds it. Skipped when no repo URL is given.
func (d *Deployer) setupContinuousDeployment(ctx context.Context) {
	repoURL := d.prompt("Enter your private GitHub repo URL (https://github.com/user/repo.git): ")
	if repoURL == "" {
		return
	}

	d.statusf("Setting up continuous deployment...")
	command := fmt.Sprintf(
		"cd /opt/neural-symphony && git clone %s . && npm install && "+
			"cd src/frontend && npm install && npm run build && cd ../.. && "+
			"sudo systemctl restart nginx", repoURL)
	if _, err := d.Client.RunRemote(ctx, d.Target, command, 10*time.Minute); err != nil {
		d.warnf("Continuous deployment setup failed: %v", err)
		return
	}
	d.successf("Continuous deployment configured!")
}

func (d *Deployer) record(ctx context.Context) {
	if d.Records == nil {
		return
	}
	ip, err := d.Client.InstanceExternalIP(ctx, d.Target)
	if err != nil {
		ip = ""
	}
	dep := &history.Deployment{
		InstanceName: d.Target.InstanceName,
		Project:      d.Target.Project,
		Zone:         d.Target.Zone,
		MachineType:  d.Target.MachineType,
		ExternalIP:   ip,
		CreatedAt:    time.Now(),
	}
	if err := d.Records.SaveDeployment(dep); err != nil {
		d.warnf("Could not record deployment: %v", err)
	}
}
