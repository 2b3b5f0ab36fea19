package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sn "github.com/gogpu/sn"
	"github.com/gogpu/sn/internal/snlog"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print launch-sequence events as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath, _ = cmd.Root().PersistentFlags().GetString("config")
			}
			return runWatch(cfgPath)
		},
	}
	return cmd
}

func runWatch(cfgPath string) error {
	cfg, err := sn.LoadMonitorConfig(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Display != "" {
		_ = os.Setenv("DISPLAY", cfg.Display)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(snlog.NewContext(context.Background(), logger))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	display, err := sn.Open(ctx, nil, nil)
	if err != nil {
		return fmt.Errorf("snmonitor: opening display: %w", err)
	}

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("TIME", "EVENT", "ID", "NAME", "PID")
	tbl.WithHeaderFormatter(headerFmt)

	var mu sync.Mutex
	_ = sn.NewMonitorContext(display, func(ev sn.MonitorEvent) {
		mu.Lock()
		defer mu.Unlock()
		tbl.AddRow(time.Now().Format("15:04:05"), ev.Kind.String(), ev.Sequence.ID, ev.Sequence.Name, ev.Sequence.PID)
		tbl.Print()
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ev, err := display.Conn().ReadEvent()
			if err != nil {
				return err
			}
			display.ProcessEvent(ev)
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("snmonitor: event loop: %w", err)
	}
	return nil
}
