/*
Copyright © 2025 NEURAL SYMPHONY
*/
package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/neural-symphony/symphonyctl/pkg/config"
	"github.com/neural-symphony/symphonyctl/pkg/gcloud"
)

// Reporter prints access URLs and management commands for a deployed
// instance. Read-only: it never touches the target.
type Reporter struct {
	Client *gcloud.Client
	Target gcloud.Target
	Out    io.Writer
}

// Report fetches the external IP and prints the access summary.
func (r *Reporter) Report(ctx context.Context) error {
	ip, err := r.Client.InstanceExternalIP(ctx, r.Target)
	if err != nil {
		return err
	}

	t := r.Target
	instanceFlags := fmt.Sprintf("%s --zone=%s --project=%s", t.InstanceName, t.Zone, t.Project)

	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, strings.Repeat("=", 60))
	fmt.Fprintln(r.Out, "Neural Symphony deployed successfully!")
	fmt.Fprintln(r.Out, strings.Repeat("=", 60))
	fmt.Fprintf(r.Out, "Access URL: http://%s\n", ip)
	fmt.Fprintf(r.Out, "API Endpoint: http://%s/api\n", ip)
	fmt.Fprintf(r.Out, "Health Check: http://%s/api/health\n", ip)
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, "Management Commands:")
	fmt.Fprintf(r.Out, "   SSH: gcloud compute ssh %s\n", instanceFlags)
	fmt.Fprintf(r.Out, "   Logs: gcloud compute ssh %s --command='tail -f %s'\n", instanceFlags, config.RemoteLogPath)
	fmt.Fprintf(r.Out, "   Stop: gcloud compute instances stop %s\n", instanceFlags)
	fmt.Fprintf(r.Out, "   Delete: gcloud compute instances delete %s\n", instanceFlags)
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, "Cost: ~$1.20/hour")
	fmt.Fprintln(r.Out, "Don't forget to stop/delete when done!")
	fmt.Fprintln(r.Out, strings.Repeat("=", 60))
	return nil
}
