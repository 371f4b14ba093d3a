package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"procsup/internal/supervisor"
)

func newLaunchCmd(a *app) *cobra.Command {
	var (
		env        []string
		inheritEnv bool
	)
	cmd := &cobra.Command{
		Use:   "launch <name> -- <command> [args...]",
		Short: "Supervise an arbitrary command until shutdown",
		Example: "  procsup launch worker -- /usr/bin/python3 worker.py\n" +
			"  procsup launch --attached --env PORT=8080 web -- ./server",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attached, _ := cmd.Flags().GetBool("attached")
			vars, err := buildEnv(inheritEnv, env)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.supervise(ctx, func(sup *supervisor.Supervisor) error {
				_, err := sup.Launch(args[0], args[1], args[2:], supervisor.LaunchOptions{Detached: !attached, Env: vars})
				return err
			})
		},
	}
	cmd.Flags().Bool("attached", false, "Keep the child in procsup's process group and share its output")
	cmd.Flags().StringArrayVar(&env, "env", nil, "Extra KEY=VALUE for the child environment (repeatable)")
	cmd.Flags().BoolVar(&inheritEnv, "inherit-env", true, "Start from procsup's own environment")
	return cmd
}

// buildEnv composes the child environment: optionally ours, then overrides.
func buildEnv(inherit bool, overrides []string) (map[string]string, error) {
	vars := make(map[string]string)
	if inherit {
		for _, kv := range environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				vars[k] = v
			}
		}
	}
	for _, kv := range overrides {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}
		vars[k] = v
	}
	return vars, nil
}
