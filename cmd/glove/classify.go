package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/geom"
	"github.com/go-sod/glove/internal/integration"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/setup"
	"github.com/go-sod/glove/internal/vocabulary"
)

type classifyOptions struct {
	model      string
	vocabulary string
	delimiter  string
	k          int
	distance   string
	alg        string
	dump       bool
	addr       string
	timeout    time.Duration
}

func newClassifyCmd() *cobra.Command {
	opts := classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify <frame> | classify <v1> <v2> ...",
		Short: "Classify a single reading with the gesture model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "models/gesture_model.xdr", "model artifact (.xdr or training .csv)")
	cmd.Flags().StringVar(&opts.vocabulary, "vocabulary", "", "vocabulary TOML file (default: built-in phrases)")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", frame.DelimiterSerial, "value delimiter inside a single frame argument")
	cmd.Flags().IntVar(&opts.k, "k", 0, "number of neighbours (default: model setting)")
	cmd.Flags().StringVar(&opts.distance, "distance", "", "distance function (default: model setting)")
	cmd.Flags().StringVar(&opts.alg, "alg", string(classifier.AlgTypeKDTree), "search algorithm: BRUTE or KD_TREE")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "dump the parsed reading and prediction")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "classify on a running service at host:port instead of loading the model")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout with --addr")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string, opts classifyOptions) error {
	if opts.addr != "" {
		return runRemoteClassify(cmd, args, opts)
	}
	ctx := logging.WithLogger(context.Background(), logging.NewLogger("warn", false))
	cls, err := classifier.Load(ctx, &classifier.Config{
		ModelPath: opts.model,
		K:         opts.k,
		Distance:  geom.DistanceFuncType(opts.distance),
		Alg:       classifier.AlgType(strings.ToUpper(opts.alg)),
	})
	if err != nil {
		return err
	}
	vocab, err := setup.LoadVocabulary(opts.vocabulary)
	if err != nil {
		return err
	}

	raw := strings.Join(args, opts.delimiter)
	r, err := frame.Parse(raw, opts.delimiter, cls.Dimensions())
	if err != nil {
		return err
	}
	prediction, err := cls.Predict(r)
	if err != nil {
		return fmt.Errorf("unable to predict: %w", err)
	}

	out := cmd.OutOrStdout()
	phrase, err := vocab.Lookup(prediction)
	switch {
	case errors.Is(err, vocabulary.ErrUnknownGesture):
		_, err = fmt.Fprintf(out, "%d\t(unknown gesture)\n", prediction)
	case err != nil:
		return err
	default:
		_, err = fmt.Fprintf(out, "%d\t%s\n", prediction, phrase)
	}
	if err != nil {
		return err
	}
	if opts.dump {
		spew.Fdump(out, r, prediction)
	}
	return nil
}

func runRemoteClassify(cmd *cobra.Command, args []string, opts classifyOptions) error {
	raw := strings.Join(args, opts.delimiter)
	r, err := frame.Parse(raw, opts.delimiter, len(strings.Split(raw, opts.delimiter)))
	if err != nil {
		return err
	}
	client, err := integration.NewClient(opts.addr, opts.timeout)
	if err != nil {
		return err
	}
	resp, err := client.Predict(cmd.Context(), r.Points())
	if err != nil {
		return err
	}
	if len(resp.Data) != 1 {
		return fmt.Errorf("expected one prediction, got %d", len(resp.Data))
	}

	item := resp.Data[0]
	phrase := item.Phrase
	if phrase == "" {
		phrase = "(unknown gesture)"
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%d\t%s\n", item.Prediction, phrase); err != nil {
		return err
	}
	if opts.dump {
		spew.Fdump(out, item)
	}
	return nil
}
