package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"academy/internal/adapters/apiclient"
	"academy/internal/config"
	"academy/internal/domain/association"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		baseURL    string
	)

	loadClient := func() (*apiclient.Client, *config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		if baseURL != "" {
			cfg.API.BaseURL = baseURL
			if err := cfg.Validate(); err != nil {
				return nil, nil, err
			}
		}
		lvl, _ := cfg.SlogLevel()
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		client := &apiclient.Client{
			BaseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
			HTTP:    &http.Client{Timeout: cfg.API.Timeout},
		}
		return client, cfg, nil
	}

	root := &cobra.Command{
		Use:           "plancourses [plan-id]",
		Short:         "Edit which courses a billing plan grants access to",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := loadClient()
			if err != nil {
				return err
			}
			planID := cfg.Editor.DefaultPlan
			if len(args) == 1 {
				planID = args[0]
			}
			if planID == "" {
				return fmt.Errorf("no plan given: pass a plan ID or set editor.default_plan (see `plancourses plans`)")
			}
			s := newSession(planID, client, cmd.OutOrStdout(), cfg.Editor.FilterDebounce)
			defer s.Close()
			return s.Run(cmd.Context(), cmd.InOrStdin())
		},
	}
	root.Version = version
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search plancourses.yaml)")
	root.PersistentFlags().StringVar(&baseURL, "url", "", "Academy API base URL (overrides config)")

	plans := &cobra.Command{
		Use:   "plans",
		Short: "List billing plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			list, err := client.ListBillingPlans(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range list {
				status := ""
				if !p.IsActive {
					status = " (inactive)"
				}
				fmt.Fprintf(out, "%-36s  %s%s\n", p.ID, p.Name, status)
			}
			return nil
		},
	}

	var add, remove []string
	apply := &cobra.Command{
		Use:   "apply <plan-id>",
		Short: "Link and unlink courses without the interactive editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(add) == 0 && len(remove) == 0 {
				return fmt.Errorf("nothing to apply: use --add and/or --remove")
			}
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			msg, err := client.ApplyPlanCourses(cmd.Context(), args[0], association.Diff{Add: add, Remove: remove})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	apply.Flags().StringSliceVar(&add, "add", nil, "Course IDs to link")
	apply.Flags().StringSliceVar(&remove, "remove", nil, "Course IDs to unlink")

	root.AddCommand(plans, apply)
	return root
}
