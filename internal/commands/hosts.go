package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/dockboard/internal/engine"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Inspect registered Docker hosts",
}

var listHostsCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered hosts",
	Args:  cobra.NoArgs,
	RunE:  runListHosts,
}

var testHostCmd = &cobra.Command{
	Use:   "test <id>",
	Short: "Test the connection to a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runTestHost,
}

func init() {
	hostsCmd.AddCommand(listHostsCmd)
	hostsCmd.AddCommand(testHostCmd)
	addOutputFlag(listHostsCmd)
	addOutputFlag(testHostCmd)
}

func runListHosts(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.registry.List()
	current := a.registry.CurrentID()
	out := cmd.OutOrStdout()

	return render(out, outputFormat(cmd), list, func() error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tID\tNAME\tHOST\tDEFAULT")
		for _, h := range list {
			mark := ""
			if h.ID == current {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", mark, h.ID, h.Name, h.ConnectionURI, h.IsDefault)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "\nTotal: %d hosts\n", len(list))
		return err
	})
}

func runTestHost(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	host, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.TestTimeout)
	defer cancel()

	res := engine.Test(ctx, host, a.factory)
	out := cmd.OutOrStdout()

	err = render(out, outputFormat(cmd), res, func() error {
		if res.Success {
			fmt.Fprintf(out, "✓ %s: %s\n", host.ID, res.Message)
			fmt.Fprintf(out, "  System:     %s (%s/%s)\n", res.SystemName, res.OS, res.Architecture)
			fmt.Fprintf(out, "  API:        %s\n", res.APIVersion)
			fmt.Fprintf(out, "  Containers: %d\n", res.Containers)
			fmt.Fprintf(out, "  Images:     %d\n", res.Images)
			return nil
		}
		fmt.Fprintf(out, "✗ %s: %s\n", host.ID, res.Error)
		if res.Suggestion != "" {
			fmt.Fprintf(out, "  Hint: %s\n", res.Suggestion)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("connection test failed for host %s", host.ID)
	}
	return nil
}
