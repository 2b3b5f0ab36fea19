// Command snmonitor watches, lists and drives startup-notification launch
// sequences on an X display, for manual testing of the sn library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "snmonitor",
		Short: "Inspect and drive startup-notification launches on an X display",
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")

	root.AddCommand(watchCmd())
	root.AddCommand(listCmd())
	root.AddCommand(launchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
