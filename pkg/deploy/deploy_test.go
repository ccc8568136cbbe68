/*
Copyright © 2025 NEURAL SYMPHONY
*/
package deploy

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/gcloud"
)

// workflowRunner fakes the gcloud binary for whole-workflow tests. It
// dispatches on the subcommand and records every call.
type workflowRunner struct {
	calls [][]string

	instanceExists     bool
	createStderr       string
	firewallStderr     string
	scriptSeenAtCreate bool
}

func (r *workflowRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	r.calls = append(r.calls, args)
	joined := strings.Join(args, " ")

	switch {
	case strings.HasPrefix(joined, "services enable"):
		return "", "", nil
	case strings.HasPrefix(joined, "compute instances describe") && strings.Contains(joined, "--format"):
		return "34.86.100.7\n", "", nil
	case strings.HasPrefix(joined, "compute instances describe"):
		if r.instanceExists {
			return "name: neural-symphony-gpu", "", nil
		}
		return "", "ERROR: not found", errors.New("exit status 1")
	case strings.HasPrefix(joined, "compute instances create"):
		if r.createStderr != "" {
			return "", r.createStderr, errors.New("exit status 1")
		}
		for _, arg := range args {
			if path, ok := strings.CutPrefix(arg, "--metadata-from-file=startup-script="); ok {
				if _, err := os.Stat(path); err == nil {
					r.scriptSeenAtCreate = true
				}
			}
		}
		return "", "", nil
	case strings.HasPrefix(joined, "compute instances delete"):
		return "", "", nil
	case strings.HasPrefix(joined, "compute firewall-rules create"):
		if r.firewallStderr != "" {
			return "", r.firewallStderr, errors.New("exit status 1")
		}
		return "", "", nil
	case strings.HasPrefix(joined, "compute ssh"):
		// Sentinel exists on the first poll.
		return "", "", nil
	}
	return "", "", nil
}

func (r *workflowRunner) callCount(prefix string) int {
	n := 0
	for _, call := range r.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			n++
		}
	}
	return n
}

func newTestDeployer(r *workflowRunner, input string) *Deployer {
	return &Deployer{
		Client: gcloud.NewClientWithRunner(r),
		Target: gcloud.Target{
			Project:      "test-project",
			Zone:         config.DefaultZone,
			MachineType:  config.DefaultMachineType,
			InstanceName: config.DefaultInstanceName,
		},
		In:  strings.NewReader(input),
		Out: io.Discard,
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func assertScriptRemoved(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(config.StartupScriptFile); !os.IsNotExist(err) {
		t.Errorf("Startup script still on disk after workflow")
	}
}

func TestDeploySuccess(t *testing.T) {
	chdir(t, t.TempDir())

	runner := &workflowRunner{}
	// Empty line skips the continuous deployment prompt.
	d := newTestDeployer(runner, "\n")

	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if runner.callCount("compute instances create") != 1 {
		t.Errorf("Expected exactly one create call")
	}
	if !runner.scriptSeenAtCreate {
		t.Errorf("Startup script did not exist when the create call consumed it")
	}
	assertScriptRemoved(t)
}

func TestDeployDeclineRecreate(t *testing.T) {
	chdir(t, t.TempDir())

	runner := &workflowRunner{instanceExists: true}
	d := newTestDeployer(runner, "n\n")

	err := d.Deploy(context.Background())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("Expected ErrDeclined, got %v", err)
	}

	if runner.callCount("compute instances create") != 0 {
		t.Errorf("Declining recreation must not create an instance")
	}
	if runner.callCount("compute instances delete") != 0 {
		t.Errorf("Declining recreation must not delete the existing instance")
	}
	assertScriptRemoved(t)
}

func TestDeployQuotaFailure(t *testing.T) {
	chdir(t, t.TempDir())

	runner := &workflowRunner{createStderr: "ERROR: Quota 'NVIDIA_L4_GPUS' exceeded"}
	d := newTestDeployer(runner, "\n")

	err := d.Deploy(context.Background())
	if !errors.Is(err, gcloud.ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got %v", err)
	}
	assertScriptRemoved(t)
}

func TestDeployFirewallFailureIsNonFatal(t *testing.T) {
	chdir(t, t.TempDir())

	runner := &workflowRunner{firewallStderr: "ERROR: The resource 'neural-symphony-web' already exists"}
	d := newTestDeployer(runner, "\n")

	if err := d.Deploy(context.Background()); err != nil {
		t.Fatalf("Firewall already-exists should not fail the deploy, got %v", err)
	}
	assertScriptRemoved(t)
}

func TestDeployCancelledContext(t *testing.T) {
	chdir(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &workflowRunner{}
	d := newTestDeployer(runner, "\n")

	// Enabling APIs still runs against the fake, but the poll loop bails and
	// the workflow reports cancellation without touching anything further.
	err := d.Deploy(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	assertScriptRemoved(t)
}
