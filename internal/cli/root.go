// Package cli implements the taskctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/CodeineSolm/taskmaster/internal/client"
	"github.com/spf13/cobra"
)

// TaskClient is the subset of the API client used by the commands.
type TaskClient interface {
	List(ctx context.Context) ([]domain.View, error)
	Get(ctx context.Context, id int64) (domain.View, error)
	Create(ctx context.Context, title, description string) (domain.View, error)
	Update(ctx context.Context, id int64, in domain.UpdateInput) error
	Toggle(ctx context.Context, id int64) (domain.View, error)
	Delete(ctx context.Context, id int64) error
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL    string
	Format string // "json" | "text"

	newClient func(url string) TaskClient
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

const defaultURL = "http://localhost:8080"

// NewRootCommand creates the taskctl root command backed by the HTTP client.
func NewRootCommand() *cobra.Command {
	return newRootCommand(func(url string) TaskClient { return client.New(url) })
}

func newRootCommand(newClient func(url string) TaskClient) *cobra.Command {
	opts := &RootOptions{newClient: newClient}

	defURL := os.Getenv("TASKCTL_URL")
	if defURL == "" {
		defURL = defaultURL
	}

	cmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage tasks from the terminal",
		Long:  "taskctl lists, creates, toggles, updates and deletes tasks through the TaskMaster HTTP API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", defURL, "base URL of the task API (env TASKCTL_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}

func (o *RootOptions) client() TaskClient {
	return o.newClient(o.URL)
}
