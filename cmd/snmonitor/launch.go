package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	sn "github.com/gogpu/sn"
)

func launchCmd() *cobra.Command {
	var (
		name string
		icon string
	)

	cmd := &cobra.Command{
		Use:   "launch -- <command> [args...]",
		Short: "Run a command wrapped in a startup-notification launch sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath, _ = cmd.Root().PersistentFlags().GetString("config")
			}
			return runLaunch(cfgPath, name, icon, args)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "User-visible launch name")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon identifier")
	return cmd
}

func runLaunch(cfgPath, name, icon string, args []string) error {
	cfg, err := sn.LoadLauncherConfig(cfgPath)
	if err != nil {
		return err
	}

	display, err := sn.Open(context.Background(), nil, nil)
	if err != nil {
		return fmt.Errorf("snmonitor: opening display: %w", err)
	}

	done := make(chan struct{})
	launcher := sn.NewLauncher(display, func(ev sn.LauncherEvent) {
		fmt.Printf("launch %s: %s\n", ev.Context.LaunchID(), ev.Kind)
		if ev.Kind == sn.LauncherCompleted || ev.Kind == sn.LauncherCanceled {
			close(done)
		}
	})

	if name != "" {
		launcher.SetName(name)
	}
	if icon != "" {
		launcher.SetIconName(icon)
	}
	launcher.SetBinaryName(args[0])
	launcher.SetSupportsCancel(cfg.DefaultSupportsCancel)

	timestamp := uint32(time.Now().Unix())
	if err := launcher.Initiate(cfg.LauncherName, args[0], timestamp); err != nil {
		return fmt.Errorf("snmonitor: initiate: %w", err)
	}

	env, err := launcher.SetupChildProcess(os.Environ())
	if err != nil {
		return err
	}

	command := exec.Command(args[0], args[1:]...)
	command.Env = env
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr

	if err := command.Start(); err != nil {
		return fmt.Errorf("snmonitor: starting %s: %w", args[0], err)
	}
	if err := launcher.SetPID(uint32(command.Process.Pid)); err != nil {
		fmt.Fprintln(os.Stderr, "snmonitor: failed to publish pid:", err)
	}

	go func() {
		for {
			ev, err := display.Conn().ReadEvent()
			if err != nil {
				return
			}
			display.ProcessEvent(ev)
		}
	}()

	waitErr := command.Wait()
	_ = launcher.Complete()
	<-done
	launcher.Release()
	return waitErr
}
