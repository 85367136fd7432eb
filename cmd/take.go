package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-cli/internal/api"
	"github.com/sells-group/survey-cli/internal/explain"
	"github.com/sells-group/survey-cli/internal/extract"
	"github.com/sells-group/survey-cli/internal/resolver"
	"github.com/sells-group/survey-cli/internal/session"
	"github.com/sells-group/survey-cli/internal/store"
	"github.com/sells-group/survey-cli/internal/workbook"
)

var takeCmd = &cobra.Command{
	Use:   "take <survey.docx>",
	Short: "Take a survey interactively in the terminal",
	Long: `Asks each question of a survey document in turn and resolves your answers
the same way the server does. Type "?" for an explanation of the current
question or "exit" to stop early. Responses are saved to the results
workbook when the survey ends unless --no-save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initSurvey(ctx, "take")
		if err != nil {
			return err
		}
		defer env.Close()

		noSave, _ := cmd.Flags().GetBool("no-save")
		t := taker{
			resolver:  env.Resolver,
			explainer: env.Explainer,
			workbook:  env.Workbook,
			store:     env.Store,
			save:      !noSave,
		}
		return t.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	takeCmd.Flags().Bool("no-save", false, "do not write responses to the workbook or archive")
	rootCmd.AddCommand(takeCmd)
}

// taker runs one survey over a line-oriented terminal.
type taker struct {
	resolver  *resolver.Resolver
	explainer *explain.Explainer
	workbook  *workbook.Writer
	store     store.Store
	save      bool
}

var (
	questionColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	promptColor   = color.New(color.FgGreen, color.Bold).SprintFunc()
	replyColor    = color.New(color.FgYellow).SprintFunc()
	errorColor    = color.New(color.FgRed, color.Bold).SprintFunc()
)

func (t *taker) run(ctx context.Context, in io.Reader, out io.Writer, path string) error {
	paragraphs, err := extract.ReadDOCXFile(path)
	if err != nil {
		return err
	}
	sess := session.New()
	survey := sess.Reset(extract.Topic(filepath.Base(path)), extract.Questions(paragraphs))

	fmt.Fprintf(out, "%s (%d questions)\n", questionColor(survey.Topic), len(survey.Questions))
	fmt.Fprintln(out, `Type "?" to explain a question or "exit" to stop.`)

	scanner := bufio.NewScanner(in)
	quit := false
	for _, q := range survey.Questions {
		if quit || ctx.Err() != nil {
			break
		}
		fmt.Fprintf(out, "\n%s\n", questionColor(q.Stem))
		if !q.OpenEnded() {
			fmt.Fprintf(out, "Options: %s\n", q.OptionsText())
		}

		for {
			fmt.Fprint(out, promptColor("You: "))
			if !scanner.Scan() {
				quit = true
				break
			}
			answer := strings.TrimSpace(scanner.Text())

			switch strings.ToLower(answer) {
			case "exit":
				quit = true
			case "?":
				fmt.Fprintln(out, replyColor(t.explainer.Explain(ctx, q.Text)))
				continue
			case "":
				continue
			}
			if quit {
				break
			}

			reply, retry := resolver.Reply(q, answer, t.resolver.Resolve(ctx, sess, q, answer))
			fmt.Fprintln(out, replyColor(reply))
			if !retry {
				break
			}
		}
	}

	if !t.save || sess.Len() == 0 {
		fmt.Fprintf(out, "\n%d responses recorded, not saved.\n", sess.Len())
		return nil
	}

	survey, responses := sess.Snapshot()
	err = api.Finalize(ctx, t.workbook, t.store, survey, responses)
	switch {
	case errors.Is(err, workbook.ErrLocked):
		fmt.Fprintln(out, errorColor(api.MsgLocked))
		return err
	case err != nil:
		fmt.Fprintln(out, errorColor(api.MsgSaveError))
		return err
	}

	zap.L().Info("survey saved", zap.String("topic", survey.Topic), zap.Int("responses", len(responses)))
	fmt.Fprintf(out, "\n%s %s\n", api.MsgSaved, t.workbook.Path(survey.Topic))
	return nil
}
