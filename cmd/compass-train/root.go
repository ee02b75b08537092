package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/internal/domain/classifier"
	"github.com/okian/compass/internal/domain/dataset"
	"github.com/okian/compass/pkg/logger"
)

type options struct {
	out          string
	samples      int
	seed         uint64
	epochs       int
	learningRate float64
}

func newRootCmd() *cobra.Command {
	defaults := classifier.DefaultTrainOptions()
	opts := options{samples: 1000, seed: 42, epochs: defaults.Epochs, learningRate: defaults.LearningRate}
	cmd := &cobra.Command{
		Use:           "compass-train",
		Short:         "Fit the classifier on synthetic data and save it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if opts.out == "" {
				cfg, err := config.Load(cmd.Context())
				if err != nil {
					return err
				}
				opts.out = cfg.ModelPath
			}
			err := train(cmd, opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "", "model file to write; defaults to model_path from config")
	cmd.Flags().IntVar(&opts.samples, "samples", opts.samples, "number of training samples")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed for the synthetic dataset")
	cmd.Flags().IntVar(&opts.epochs, "epochs", opts.epochs, "gradient descent epochs")
	cmd.Flags().Float64Var(&opts.learningRate, "learning-rate", opts.learningRate, "gradient descent step size")
	return cmd
}

func train(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	log := logger.Named("train")

	dopts := dataset.DefaultOptions()
	dopts.Samples = opts.samples
	X, y := dataset.Generate(rand.New(rand.NewPCG(opts.seed, opts.seed)), dopts)

	topts := classifier.DefaultTrainOptions()
	topts.Epochs = opts.epochs
	topts.LearningRate = opts.learningRate
	model, err := classifier.Train(X, y, topts)
	if err != nil {
		return err
	}
	acc, err := model.Accuracy(X, y)
	if err != nil {
		return err
	}
	if err := model.Save(opts.out); err != nil {
		return err
	}
	log.Info(ctx, "model trained",
		logger.String("out", opts.out),
		logger.Int("samples", opts.samples),
		logger.Float64("train_accuracy", acc))
	fmt.Fprintf(cmd.OutOrStdout(), "Model saved to %s (training accuracy %.4f)\n", opts.out, acc)
	return nil
}
