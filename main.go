package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sadopc/tasklog/internal/config"
	"github.com/sadopc/tasklog/internal/export"
	"github.com/sadopc/tasklog/internal/session"
	"github.com/sadopc/tasklog/internal/store"
	"github.com/sadopc/tasklog/internal/tui"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		plain      bool
		logPath    string
	)

	cmd := &cobra.Command{
		Use:           "tasklog",
		Short:         "Track what you work on and save it as CSV",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logPath != "" {
				f, err := tea.LogToFile(logPath, "tasklog")
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
			} else {
				log.SetOutput(io.Discard)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			path, err := cfg.OutputPath(time.Now())
			if err != nil {
				return err
			}
			log.Printf("tasklog: writing to %s", path)

			persister := export.CSVFile{Path: path}
			if plain || !isTerminal(os.Stdin) {
				return runPlain(path, persister)
			}
			return runTUI(path, persister)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to the YAML config file")
	cmd.Flags().BoolVar(&plain, "plain", false, "Use the line-based prompt instead of the full-screen interface")
	cmd.Flags().StringVar(&logPath, "log", "", "Write debug logs to this file")

	cmd.AddCommand(initCmd(&configPath))

	return cmd
}

func initCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().WriteFile(*configPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", *configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func runPlain(path string, p session.Persister) error {
	s := session.New(store.New(), os.Stdout, session.WithOutputPath(path))
	return session.Run(s, os.Stdin, p)
}

func runTUI(path string, p session.Persister) error {
	out := &bytes.Buffer{}
	s := session.New(store.New(), out, session.WithOutputPath(path))

	app := tui.NewApp(s, out, p)
	final, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.App); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
