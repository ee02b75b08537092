package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/internal/domain/assessment"
	"github.com/okian/compass/pkg/logger"
)

type options struct {
	demo          bool
	questionsFile string
	metricsFile   string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "compass-assess",
		Short:         "Assess your organization's MLOps maturity",
		Long:          "Walks through the maturity questionnaire and reports a level per dimension.\nWith --demo, answers are fixed and the result is written to the metrics file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyConfig(cmd, &opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "answer every question with a fixed choice and write the metrics file")
	cmd.Flags().StringVar(&opts.questionsFile, "questions", "", "question set (JSON or YAML); defaults to questions_file from config")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "metrics file written in demo mode; defaults to metrics_file from config")
	return cmd
}

// applyConfig fills flags the user left unset from configuration and points
// logging at stderr so it never mixes with the questionnaire.
func applyConfig(cmd *cobra.Command, opts *options) error {
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	// Quiet by default; the questionnaire is the output.
	_ = logger.SetLevelString("warn")
	if opts.questionsFile == "" {
		opts.questionsFile = cfg.QuestionsFile
	}
	if opts.metricsFile == "" {
		opts.metricsFile = cfg.MetricsFile
	}
	return nil
}

func run(in io.Reader, out io.Writer, opts options) error {
	qs, err := assessment.LoadQuestions(opts.questionsFile)
	if err != nil {
		return err
	}
	styles := stylesFor(out)

	if opts.demo {
		return runDemo(out, qs, opts.metricsFile)
	}

	p := assessment.NewPrompt(in, out, styles)
	p.Intro()
	answers, err := assessment.Run(qs, p)
	if err != nil {
		return err
	}
	assessment.WriteReport(out, assessment.Summarize(answers), styles)
	return nil
}

func runDemo(out io.Writer, qs *assessment.QuestionSet, metricsFile string) error {
	answers, err := assessment.Run(qs, assessment.DemoChooser{})
	if err != nil {
		return err
	}
	summary := assessment.Summarize(answers)

	st := store.New(metricsFile)
	prev, _ := st.ReadOrDefault()
	snap := summary.Snapshot(prev.Iteration, st.Now())
	if err := st.Write(snap); err != nil {
		return err
	}
	fmt.Fprintf(out, "Demo complete. Metrics written. Overall: %.2f, Level: %d, Questions: %d\n",
		summary.OverallAvg, summary.OverallLevel, summary.Questions)
	return nil
}

// stylesFor colours output only when it goes to a terminal.
func stylesFor(out io.Writer) assessment.Styles {
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return assessment.DefaultStyles()
	}
	return assessment.PlainStyles()
}
