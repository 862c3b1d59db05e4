package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/MacJediWizard/availcheck/internal/config"
	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "availcheck %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the expected agent baseline",
	}

	cmd.AddCommand(newBaselineLoadCmd(a))

	return cmd
}

func newBaselineLoadCmd(a *app) *cobra.Command {
	var osName string

	cmd := &cobra.Command{
		Use:   "load <csv>",
		Short: "Replace the baseline of one operating system from a CSV file",
		Long: `Replace the baseline of one operating system from a CSV file.

The CSV must have exactly the columns "Domain" and "Agent Name" (any order,
case-insensitive). The existing baseline of that operating system is replaced;
the other operating system is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := models.ParseOperatingSystem(osName)
			if err != nil {
				return err
			}
			return a.loadBaseline(cmd.Context(), platform, args[0])
		},
	}

	cmd.Flags().StringVar(&osName, "os", "", "operating system of the baseline (windows or linux)")
	_ = cmd.MarkFlagRequired("os")

	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		windowsCSV  string
		linuxCSV    string
		output      string
		now         string
		metricsFile string
		exportFmt   string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check availability and generate reports",
		Long: `Check every baseline agent against the availability CSV exports and
write <output>.xlsx and <output>.docx to the reports directory.

At least one of --windows or --linux is required. An operating system
without a CSV is checked against an empty feed, so all of its agents are
reported as not available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if windowsCSV == "" && linuxCSV == "" {
				return fmt.Errorf("at least one of --windows or --linux is required")
			}

			ref, err := parseReferenceTime(now)
			if err != nil {
				return fmt.Errorf("invalid --now: %w", err)
			}

			feeds := make(map[models.OperatingSystem]string)
			if windowsCSV != "" {
				feeds[models.OSWindows] = windowsCSV
			}
			if linuxCSV != "" {
				feeds[models.OSLinux] = linuxCSV
			}

			return a.runCheck(cmd.Context(), checkOptions{
				feeds:        feeds,
				outputBase:   output,
				now:          ref,
				metricsFile:  metricsFile,
				exportFormat: exportFmt,
			})
		},
	}

	cmd.Flags().StringVar(&windowsCSV, "windows", "", "Windows availability CSV")
	cmd.Flags().StringVar(&linuxCSV, "linux", "", "Linux availability CSV")
	cmd.Flags().StringVarP(&output, "output", "o", "", "report file name base (default from config)")
	cmd.Flags().StringVar(&now, "now", "", "reference time instead of the current time")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "also write Prometheus textfile metrics to this path")
	cmd.Flags().StringVar(&exportFmt, "export", "", "also write a machine-readable report (json or yaml)")

	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show baseline database information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showInfo(cmd.Context())
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage availcheck configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(a),
		newConfigInitCmd(a),
	)

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintf(a.out, "# Config file: %s\n", a.configPath)
			_, err = a.out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", a.configPath)
			}

			if err := config.Default().Save(a.configPath); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintf(a.out, "Configuration saved to %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
