package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/store"
)

// OutcomesOptions holds flags for the outcomes command.
type OutcomesOptions struct {
	*RootOptions
	Reactor string
	Status  string
}

// NewOutcomesCommand creates the outcomes command.
func NewOutcomesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OutcomesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "outcomes <db>",
		Short:         "Print reactor outcomes in the order they happened",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutcomes(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Reactor, "reactor", "", "only this reactor ID")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only completed, failed or cancelled")

	return cmd
}

func runOutcomes(opts *OutcomesOptions, dbPath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	status := ir.OutcomeStatus(opts.Status)
	switch status {
	case "", ir.OutcomeCompleted, ir.OutcomeFailed, ir.OutcomeCancelled:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q", opts.Status))
	}

	st, err := openExisting(f, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	outcomes, err := st.ReadOutcomes(cmdContext(cmd), store.OutcomeFilter{
		ReactorID: opts.Reactor,
		Status:    status,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "read outcomes", err)
	}

	if f.JSON() {
		return f.Success(outcomes)
	}
	if len(outcomes) == 0 {
		f.Printf("No outcomes.\n")
		return nil
	}
	for _, o := range outcomes {
		f.Printf("%4d  tick %-6d %-9s %s (%s)", o.Seq, o.Tick, o.Status, o.Name, o.ReactorID)
		if o.Error != "" {
			f.Printf(": %s", o.Error)
		}
		f.Printf("\n")
	}
	return nil
}
