package cli

import (
	"fmt"
	"strconv"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, open ones first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := rootOpts.client().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}
			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.list(domain.SortForDisplay(views))
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := rootOpts.client().Create(cmd.Context(), args[0], description)
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}
			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.created(view)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := rootOpts.client().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.task(view)
		},
	}
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between open and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := rootOpts.client().Toggle(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to toggle task: %w", err)
			}
			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.line(view)
		},
	}
}

// NewUpdateCommand creates the update command. It replaces title,
// description and completion in one request.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		title       string
		description string
		completed   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a task's title, description and completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			in := domain.UpdateInput{Title: title, IsCompleted: completed}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}

			if err := rootOpts.client().Update(cmd.Context(), id, in); err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title (3-200 characters)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description; omitted clears it")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark the task as done")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rootOpts.client().Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}
