package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sells-group/survey-cli/internal/match"
)

var scoreCmd = &cobra.Command{
	Use:   "score <candidate> <option>...",
	Short: "Show how a candidate answer scores against options",
	Long: `Prints every similarity metric the resolver uses for the candidate against
each option, and marks the option the resolver would pick.

The combined score is the best of ratio, partial ratio and token-sort ratio,
plus a bonus of 10 when the candidate appears inside the option. A pick needs
at least --threshold.

Examples:
  score stck stick walker none
  score "5 to 7" "less than 5" "5 to 7" "more than 7" --threshold 90`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetInt("threshold")
		return runScore(cmd.OutOrStdout(), args[0], args[1:], threshold)
	},
}

func init() {
	scoreCmd.Flags().Int("threshold", 85, "minimum combined score for a match")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(out io.Writer, candidate string, options []string, threshold int) error {
	best, bestScore := match.Best(candidate, options)
	pick := color.New(color.FgGreen, color.Bold).SprintFunc()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPTION\tRATIO\tPARTIAL\tTOKEN SORT\tSCORE\t")
	for i, opt := range options {
		mark := ""
		if i == best && bestScore >= threshold {
			mark = pick("<- match")
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			opt,
			match.Ratio(candidate, opt),
			match.PartialRatio(candidate, opt),
			match.TokenSortRatio(candidate, opt),
			match.Score(candidate, opt),
			mark,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if best < 0 || bestScore < threshold {
		fmt.Fprintf(out, "no option reaches %d\n", threshold)
	}
	return nil
}
