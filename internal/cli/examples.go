package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/report"
)

// ExamplesCmd creates the examples command.
func ExamplesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [N]",
		Short: "List or print the built-in sample conversations",
		Long: `List the built-in sample conversations, or print sample N.

Samples are Hindi doctor-patient dialogues. Use them with
'medreport report --example N'.`,
		Example: `  medreport examples
  medreport examples 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runExamplesList(env)
			}
			return runExamplesShow(env, args[0])
		},
	}
}

func runExamplesList(env *Env) error {
	for i, ex := range report.Examples() {
		fmt.Fprintf(env.Stdout, "%d. %s\n", i+1, ex.Title)
	}
	return nil
}

func runExamplesShow(env *Env, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("example %q is not a number: %w", arg, report.ErrUnknownExample)
	}
	ex, err := report.ExampleAt(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%s\n\n%s\n", ex.Title, ex.Conversation)
	return nil
}
