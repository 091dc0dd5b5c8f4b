package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bqadmin/internal/analytics"
)

type rootOptions struct {
	server string
	token  string
	userID string
	plain  bool
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "bqchat",
		Short:         "Terminal client for the bqadmin dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("BQADMIN_URL", "http://localhost:8080"), "bqadmin server URL (BQADMIN_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BQADMIN_TOKEN"), "session token printed by bqchat login (BQADMIN_TOKEN)")
	root.PersistentFlags().StringVar(&opts.userID, "user-id", "", "caller id sent as X-User-ID with queries; a session token takes precedence")
	root.PersistentFlags().BoolVar(&opts.plain, "plain", os.Getenv("NO_COLOR") != "", "disable markdown rendering")

	root.AddCommand(
		newLoginCmd(opts),
		newDatasetsCmd(opts),
		newChatCmd(opts),
		newUsersCmd(opts),
	)
	return root
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.token, o.userID)
}

func (o *rootOptions) renderer(cmd *cobra.Command) *renderer {
	return newRenderer(cmd.OutOrStdout(), !o.plain)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session and print the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BQADMIN_PASSWORD")
			}
			res, err := opts.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", res.User.Email, res.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "export BQADMIN_TOKEN=%s\n", res.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or BQADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDatasetsCmd(opts *rootOptions) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List BigQuery datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := opts.client().ListDatasets(cmd.Context(), project)
			if err != nil {
				return err
			}
			opts.renderer(cmd).Datasets(datasets)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only list datasets of this project")
	return cmd
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var project, dataset, provider, model, apiKey string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask natural-language questions about a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := newChatSession(opts.client(), opts.renderer(cmd), project)

			if provider != "" {
				modelArgs := []string{provider}
				if model != "" {
					modelArgs = append(modelArgs, model)
				}
				if err := s.setModel(modelArgs); err != nil {
					return err
				}
			} else if model != "" {
				s.modelName = model
			}
			s.apiKey = apiKey

			s.loadDatasets(ctx)
			if dataset != "" {
				if err := s.selectDataset(dataset, project); err != nil {
					s.render.Error(err)
				}
			}
			s.render.Info("Type /help for commands.")

			return s.run(ctx, cmd.InOrStdin(), true)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "BigQuery project")
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset to select on start")
	cmd.Flags().StringVar(&provider, "provider", "", fmt.Sprintf("model provider %v", analytics.Providers()))
	cmd.Flags().StringVar(&model, "model", "", "model name (defaults per provider)")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("BQCHAT_MODEL_API_KEY"), "provider API key (BQCHAT_MODEL_API_KEY)")
	return cmd
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := opts.client().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			opts.renderer(cmd).Users(users)
			return nil
		},
	}

	var email, name, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client().CreateUser(cmd.Context(), email, name, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) id=%s\n", user.Email, user.Role, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&role, "role", "USER", "ADMIN or USER")
	_ = create.MarkFlagRequired("email")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
