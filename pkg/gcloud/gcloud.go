/*
Copyright © 2025 NEURAL SYMPHONY

gcloud.go wraps the Google Cloud CLI behind a narrow typed client so the
deployment workflow never parses raw command output outside this package.
*/
package gcloud

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/neural-symphony/symphonyctl/pkg/config"
)

// Target describes the instance every operation acts on.
type Target struct {
	Project      string
	Zone         string
	MachineType  string
	InstanceName string
}

// DefaultTarget returns a Target for the given project with the standard
// instance name, zone, and machine type.
func DefaultTarget(project string) Target {
	return Target{
		Project:      project,
		Zone:         config.DefaultZone,
		MachineType:  config.DefaultMachineType,
		InstanceName: config.DefaultInstanceName,
	}
}

// Runner executes a gcloud invocation and returns its output. Tests swap in
// a fake; production uses the real binary.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout string, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "gcloud", args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.String(), errOut.String(), err
}

// Client issues typed operations against the gcloud CLI.
type Client struct {
	runner Runner
}

// NewClient returns a Client backed by the real gcloud binary.
func NewClient() *Client {
	return &Client{runner: execRunner{}}
}

// NewClientWithRunner returns a Client backed by a custom Runner.
func NewClientWithRunner(r Runner) *Client {
	return &Client{runner: r}
}

// CheckAuth verifies the gcloud CLI is present and authenticated, and
// returns the configured project ID. An empty project with a nil error means
// the caller must supply one.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	if _, _, err := c.runner.Run(ctx, "auth", "list"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrToolingUnavailable, err)
	}

	out, _, err := c.runner.Run(ctx, "config", "get-value", "project")
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

// EnableService enables a Google Cloud API for the project.
func (c *Client) EnableService(ctx context.Context, project, service string) error {
	_, stderr, err := c.runner.Run(ctx, "services", "enable", service,
		fmt.Sprintf("--project=%s", project))
	if err != nil {
		return fmt.Errorf("failed to enable %s: %v: %s", service, err, strings.TrimSpace(stderr))
	}
	return nil
}

// InstanceExists reports whether the target instance currently exists.
// A failed describe call is treated as "does not exist".
func (c *Client) InstanceExists(ctx context.Context, t Target) bool {
	_, _, err := c.runner.Run(ctx, "compute", "instances", "describe", t.InstanceName,
		fmt.Sprintf("--zone=%s", t.Zone),
		fmt.Sprintf("--project=%s", t.Project))
	return err == nil
}

// CreateInstance creates the GPU instance with the bootstrap script attached
// as startup metadata. Quota rejections map to ErrQuotaExceeded.
func (c *Client) CreateInstance(ctx context.Context, t Target, scriptPath string) error {
	args := []string{
		"compute", "instances", "create", t.InstanceName,
		fmt.Sprintf("--project=%s", t.Project),
		fmt.Sprintf("--zone=%s", t.Zone),
		fmt.Sprintf("--machine-type=%s", t.MachineType),
		"--network-interface=network-tier=PREMIUM,stack-type=IPV4_ONLY,subnet=default",
		"--maintenance-policy=TERMINATE",
		"--provisioning-model=STANDARD",
		fmt.Sprintf("--accelerator=count=1,type=%s", config.DefaultAcceleratorType),
		fmt.Sprintf("--create-disk=auto-delete=yes,boot=yes,image=%s,mode=rw,size=%d,type=pd-balanced",
			config.DefaultBootDiskImage, config.DefaultBootDiskSizeGB),
		"--no-shielded-secure-boot",
		"--shielded-vtpm",
		"--shielded-integrity-monitoring",
		"--reservation-affinity=any",
		fmt.Sprintf("--metadata-from-file=startup-script=%s", scriptPath),
		fmt.Sprintf("--tags=%s", config.InstanceNetworkTags),
	}

	_, stderr, err := c.runner.Run(ctx, args...)
	if err != nil {
		if strings.Contains(strings.ToLower(stderr), "quota") {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, strings.TrimSpace(stderr))
		}
		return fmt.Errorf("failed to create instance: %v: %s", err, strings.TrimSpace(stderr))
	}
	return nil
}

// DeleteInstance deletes the target instance without prompting.
func (c *Client) DeleteInstance(ctx context.Context, t Target) error {
	_, stderr, err := c.runner.Run(ctx, "compute", "instances", "delete", t.InstanceName,
		fmt.Sprintf("--zone=%s", t.Zone),
		fmt.Sprintf("--project=%s", t.Project),
		"--quiet")
	if err != nil {
		return fmt.Errorf("failed to delete instance: %v: %s", err, strings.TrimSpace(stderr))
	}
	return nil
}

// CreateFirewallRule opens the web ports to all sources for the tagged
// instance. Returns ErrAlreadyExists when the rule is already present.
func (c *Client) CreateFirewallRule(ctx context.Context, project string) error {
	_, stderr, err := c.runner.Run(ctx, "compute", "firewall-rules", "create", config.FirewallRuleName,
		fmt.Sprintf("--project=%s", project),
		fmt.Sprintf("--allow=%s", config.FirewallAllowSpec),
		fmt.Sprintf("--source-ranges=%s", config.FirewallSourceRanges),
		fmt.Sprintf("--target-tags=%s", config.InstanceNetworkTags))
	if err != nil {
		if strings.Contains(strings.ToLower(stderr), "already exists") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create firewall rule: %v: %s", err, strings.TrimSpace(stderr))
	}
	return nil
}

// RunRemote executes a command on the instance over gcloud compute ssh with
// a bounded timeout. Returns combined stdout on success.
func (c *Client) RunRemote(ctx context.Context, t Target, command string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, stderr, err := c.runner.Run(ctx, "compute", "ssh", t.InstanceName,
		fmt.Sprintf("--zone=%s", t.Zone),
		fmt.Sprintf("--project=%s", t.Project),
		fmt.Sprintf("--command=%s", command))
	if err != nil {
		return "", fmt.Errorf("remote command failed: %v: %s", err, strings.TrimSpace(stderr))
	}
	return out, nil
}

// InstanceExternalIP returns the externally routable address of the instance.
func (c *Client) InstanceExternalIP(ctx context.Context, t Target) (string, error) {
	out, stderr, err := c.runner.Run(ctx, "compute", "instances", "describe", t.InstanceName,
		fmt.Sprintf("--zone=%s", t.Zone),
		fmt.Sprintf("--project=%s", t.Project),
		"--format=value(networkInterfaces[0].accessConfigs[0].natIP)")
	if err != nil {
		return "", fmt.Errorf("failed to get instance IP: %v: %s", err, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(out), nil
}
