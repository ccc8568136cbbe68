/*
Copyright © 2025 NEURAL SYMPHONY

constants.go defines all configuration constants for the symphonyctl
deployment system. Update these values to change default behavior across
all components.
*/
package config

import "time"

// =============================================================================
// DEPLOYMENT TARGET CONFIGURATION
// =============================================================================

const (
	// DefaultInstanceName is the name of the GCE instance created by deploy
	DefaultInstanceName = "neural-symphony-gpu"

	// DefaultZone is the GCE zone instances are created in
	DefaultZone = "us-east4-a"

	// DefaultMachineType is the machine type for the GPU instance
	// g2-standard-8 carries 1x L4, enough for gpt-oss-20b
	DefaultMachineType = "g2-standard-8"

	// DefaultAcceleratorType is the GPU attached to the instance
	DefaultAcceleratorType = "nvidia-l4"

	// DefaultBootDiskImage is the boot disk image for new instances
	DefaultBootDiskImage = "projects/debian-cloud/global/images/debian-12-bookworm-v20250709"

	// DefaultBootDiskSizeGB is the boot disk size in gigabytes
	DefaultBootDiskSizeGB = 10

	// ProjectEnvVar overrides the gcloud-configured project when set
	ProjectEnvVar = "SYMPHONY_PROJECT"
)

// =============================================================================
// FIREWALL CONFIGURATION
// =============================================================================

const (
	// FirewallRuleName is the name of the inbound web traffic rule
	FirewallRuleName = "neural-symphony-web"

	// FirewallAllowSpec lists the ports opened for the web stack
	FirewallAllowSpec = "tcp:80,tcp:443,tcp:3000,tcp:3001"

	// FirewallSourceRanges permits traffic from any source
	FirewallSourceRanges = "0.0.0.0/0"

	// InstanceNetworkTags are attached at creation and targeted by the rule
	InstanceNetworkTags = "http-server,https-server"
)

// =============================================================================
// READINESS POLLING
// =============================================================================

const (
	// SentinelPath is written on the instance when bootstrap completes
	SentinelPath = "/opt/neural-symphony-ready"

	// MaxPollAttempts bounds the readiness poll (~16 minutes total)
	MaxPollAttempts = 100

	// PollInterval is the fixed delay between readiness attempts
	PollInterval = 10 * time.Second

	// PollAttemptTimeout bounds each remote sentinel check
	PollAttemptTimeout = 30 * time.Second

	// PollProgressEvery controls how often a progress line is printed
	PollProgressEvery = 6
)

// =============================================================================
// STARTUP SCRIPT
// =============================================================================

const (
	// StartupScriptFile is the local temp file consumed by instance creation
	StartupScriptFile = "startup-script.sh"

	// RemoteLogPath is where the bootstrap script logs on the instance
	RemoteLogPath = "/var/log/neural-symphony.log"
)

// =============================================================================
// INFERENCE SERVER CONFIGURATION
// =============================================================================

const (
	// DefaultServeHost is the address the inference server binds to
	DefaultServeHost = "127.0.0.1"

	// DefaultServePort is the port the inference server listens on
	DefaultServePort = 8000

	// DefaultModel is the model served when none is specified
	DefaultModel = "gpt-oss-20b"

	// DefaultVLLMUpstream is the local OpenAI-compatible engine endpoint
	DefaultVLLMUpstream = "http://127.0.0.1:8001"

	// DefaultMaxTokens is the generation cap when a request omits max_tokens
	DefaultMaxTokens = 1024

	// DefaultTemperature is the sampling temperature default
	DefaultTemperature = 0.7

	// DefaultTopP is the nucleus sampling default
	DefaultTopP = 0.9

	// GenerateTimeout bounds a single generation call
	GenerateTimeout = 5 * time.Minute
)
