package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	sn "github.com/gogpu/sn"
)

func listCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Snapshot currently in-flight launch sequences",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath, _ = cmd.Root().PersistentFlags().GetString("config")
			}
			return runList(cfgPath, wait)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to collect events before printing")
	return cmd
}

func runList(cfgPath string, wait time.Duration) error {
	cfg, err := sn.LoadMonitorConfig(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Display != "" {
		_ = os.Setenv("DISPLAY", cfg.Display)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	display, err := sn.Open(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("snmonitor: opening display: %w", err)
	}

	var mu sync.Mutex
	seen := make(map[string]*sn.Sequence)
	_ = sn.NewMonitorContext(display, func(ev sn.MonitorEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Kind == sn.MonitorCompleted {
			delete(seen, ev.Sequence.ID)
			return
		}
		seen[ev.Sequence.ID] = ev.Sequence
	})

	go func() {
		for ctx.Err() == nil {
			ev, err := display.Conn().ReadEvent()
			if err != nil {
				return
			}
			display.ProcessEvent(ev)
		}
	}()
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("ID", "NAME", "BINARY", "HOSTNAME", "PID")
	tbl.WithHeaderFormatter(headerFmt)
	for _, seq := range seen {
		tbl.AddRow(seq.ID, seq.Name, seq.BinaryName, seq.Hostname, seq.PID)
	}
	tbl.Print()
	return nil
}
