package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/dockboard/internal/format"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run one aggregation pass and print the dashboard",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().String("fidelity", "", "view fidelity (fast, full); empty uses the configured default")
	addOutputFlag(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("fidelity")
	requested, ok := format.ParseFidelity(raw)
	if raw != "" && !ok {
		return fmt.Errorf("invalid fidelity %q (use fast or full)", raw)
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.aggregator.Collect(cmd.Context(), a.aggregator.Options(requested))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return render(out, outputFormat(cmd), d, func() error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HOST\tSTATUS\tENGINE\tRUNNING\tEXITED\tOTHER\tIMAGES")
		for _, h := range d.Hosts {
			if !h.Connected {
				fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\n", h.ID, "error: "+h.ErrorKind)
				continue
			}
			other := h.Counts.Created + h.Counts.Paused + h.Counts.Other
			fmt.Fprintf(w, "%s\tconnected\t%s\t%d\t%d\t%d\t%d\n",
				h.ID, h.EngineVersion, h.Counts.Running, h.Counts.Exited, other, h.ImageCount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		g := d.Global
		_, err := fmt.Fprintf(out, "\nHosts: %d/%d connected, containers: %d (%d running), fidelity: %s\n",
			g.ConnectedHosts, g.TotalHosts, g.TotalContainers, g.RunningContainers, d.Fidelity)
		return err
	})
}
