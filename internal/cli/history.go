package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Stack string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "Print persisted record stacks",
		Long: `Print the entries and cursor of record stacks written by "tickflow run".

Entries before the cursor are undoable; entries at or after it were undone
and can be redone.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Stack, "stack", "", "only this stack")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmdContext(cmd)

	st, err := openExisting(f, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	stacks := []string{opts.Stack}
	if opts.Stack == "" {
		stacks, err = st.ListStacks(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "list stacks", err)
		}
	}

	histories, err := readHistories(ctx, st, stacks)
	if err != nil {
		return WrapExitError(ExitCommandError, "read history", err)
	}

	if f.JSON() {
		return f.Success(histories)
	}
	if len(histories) == 0 {
		f.Printf("No record stacks.\n")
		return nil
	}
	for _, h := range histories {
		f.Printf("%s (cursor %d/%d)\n", h.Stack, h.Cursor, len(h.Entries))
		for i, e := range h.Entries {
			mark := " "
			if i >= h.Cursor {
				mark = "~"
			}
			f.Printf("  %s %d %s @tick %d %s\n", mark, e.Position, e.Name, e.Tick, formatValue(e.Payload))
		}
	}
	return nil
}

func readHistories(ctx context.Context, st *store.Store, stacks []string) ([]ir.History, error) {
	histories := make([]ir.History, 0, len(stacks))
	for _, name := range stacks {
		h, err := st.ReadHistory(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", name, err)
		}
		histories = append(histories, h)
	}
	return histories, nil
}

// openExisting opens a database that must already exist; store.Open would
// create an empty one.
func openExisting(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, compiler.ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return st, nil
}
