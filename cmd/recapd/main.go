// Package main is the entry point for the recapd daemon.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recapd",
		Short:         "Scheduled conversation summaries, delivered on your interval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("recapd %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return app.Run(app.Params{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (%d credentials, tick %s)\n",
				len(cfg.Summarizer.APIKeys), cfg.Scheduler.Tick)
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("output")

			var (
				model   = "deepseek/deepseek-r1:free"
				keys    string
				bind    = "127.0.0.1:8080"
				tick    = "30s"
				confirm bool
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Model").
						Description("OpenRouter model identifier").
						Value(&model),
					huh.NewInput().
						Title("API keys").
						Description("Comma-separated OpenRouter keys (rotated on rate limits)").
						Value(&keys).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("at least one key is required")
							}
							return nil
						}),
					huh.NewInput().
						Title("Gateway bind address").
						Value(&bind),
					huh.NewInput().
						Title("Dispatch tick").
						Value(&tick),
				),
				huh.NewGroup(
					huh.NewConfirm().
						Title("Write " + path + "?").
						Value(&confirm),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if !confirm {
				fmt.Println("Aborted.")
				return nil
			}

			var b strings.Builder
			b.WriteString("version: \"1\"\n\n")
			b.WriteString("summarizer:\n")
			fmt.Fprintf(&b, "  model: %s\n", model)
			b.WriteString("  api_keys:\n")
			for _, key := range strings.Split(keys, ",") {
				if key = strings.TrimSpace(key); key != "" {
					fmt.Fprintf(&b, "    - %s\n", key)
				}
			}
			b.WriteString("\nscheduler:\n")
			fmt.Fprintf(&b, "  tick: %s\n", tick)
			b.WriteString("\ngateway:\n")
			fmt.Fprintf(&b, "  bind: %s\n", bind)

			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "recapd.yaml", "Where to write the configuration")
	return cmd
}

// program adapts the daemon to the service manager lifecycle.
type program struct {
	configPath string
	errCh      chan error
}

// Start implements service.Interface. Service managers expect Start to
// return promptly, so the daemon runs in the background.
func (p *program) Start(_ service.Service) error {
	go func() {
		p.errCh <- app.Run(app.Params{
			ConfigPath: p.configPath,
			Version:    version,
			Commit:     commit,
			Date:       date,
		})
	}()
	return nil
}

// Stop implements service.Interface. app.Run handles SIGTERM itself; by the
// time the manager calls Stop the run loop is already draining.
func (p *program) Stop(_ service.Service) error {
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|restart|run]",
		Short:     "Manage recapd as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "restart", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "recapd",
				DisplayName: "recapd",
				Description: "Scheduled conversation summary daemon",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{configPath: cfgPath, errCh: make(chan error, 1)}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			if args[0] == "run" {
				if err := svc.Run(); err != nil {
					return err
				}
				select {
				case err := <-prg.errCh:
					return err
				default:
					return nil
				}
			}

			if err := service.Control(svc, args[0]); err != nil {
				return err
			}
			fmt.Printf("Service %s: done\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
