package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"procsup/internal/config"
	"procsup/internal/lifecycle"
	"procsup/internal/logging"
)

// app carries state resolved by the root command for its subcommands.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	logOut  io.Writer
	signals lifecycle.SignalSource

	configPath string
	root       string
}

func newApp(logOut io.Writer) *app {
	return &app{logOut: logOut, signals: lifecycle.OSSignals}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "procsup",
		Short:         "Launch auxiliary services and terminate them when procsup exits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&a.root, "root", "", "Install root used to resolve service paths (defaults to the parent of the executable's directory)")
	pf.String("log-level", "", "Log level: trace|debug|info|warn|error|off (defaults PROCSUP_LOG_LEVEL or info)")
	pf.String("log-format", "", "Log format: auto|console|json")
	pf.String("status-addr", "", "Serve status and metrics on this address, e.g. 127.0.0.1:9191 (empty disables)")
	pf.String("cors-origins", "", "Comma-separated origins allowed to query the status server")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load(cmd)
	}

	root.AddCommand(newRunCmd(a), newLaunchCmd(a))

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

// load resolves configuration: file, then environment, then flags, then
// defaults for whatever is still unset.
func (a *app) load(cmd *cobra.Command) error {
	var cfg config.Config
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("status-addr") {
		cfg.StatusAddr, _ = flags.GetString("status-addr")
	}
	if flags.Changed("cors-origins") {
		v, _ := flags.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(v)
	}
	if f := flags.Lookup("attached"); f != nil && f.Changed {
		cfg.Attached, _ = flags.GetBool("attached")
	}
	if f := flags.Lookup("command"); f != nil && f.Changed {
		cfg.Command, _ = flags.GetString("command")
	}

	root := a.root
	if root == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		root = filepath.Dir(filepath.Dir(exe))
	}
	cfg, err := cfg.Defaults(root).ExpandPaths()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(a.logOut, cfg.LogLevel, cfg.LogFormat)
	return nil
}
