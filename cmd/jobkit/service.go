package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the daemon to the kardianos service lifecycle.
type program struct {
	cfgPath string
	daemon  *daemon
}

// Start implements service.Interface. It must not block.
func (p *program) Start(service.Service) error {
	d, err := buildDaemon(p.cfgPath)
	if err != nil {
		return err
	}
	p.daemon = d
	return d.start(context.Background())
}

// Stop implements service.Interface.
func (p *program) Stop(service.Service) error {
	if p.daemon != nil {
		p.daemon.stop(context.Background())
	}
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service <install|uninstall|start|stop|run>",
		Short: "Manage jobkit as a system service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "jobkit",
				DisplayName: "jobkit scheduler",
				Description: "Cron-style job runner with output routing and mail dispatch",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			svc, err := service.New(&program{cfgPath: cfgPath}, svcConfig)
			if err != nil {
				return fmt.Errorf("service: %w", err)
			}

			action := args[0]
			if action == "run" {
				return svc.Run()
			}

			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("service %s: ok\n", action)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
