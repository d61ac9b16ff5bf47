package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/classifier/artifact"
	"github.com/go-sod/glove/internal/geom"
)

func newPackCmd() *cobra.Command {
	var (
		k        int
		distance string
	)
	cmd := &cobra.Command{
		Use:   "pack <dataset.csv> <model.xdr>",
		Short: "Pack a labelled CSV dataset into a model artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := geom.DistanceFuncFor(geom.DistanceFuncType(distance)); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()

			model, err := artifact.ReadDataset(f, k, strings.ToUpper(distance))
			if err != nil {
				return err
			}
			if err := artifact.WriteFile(args[1], model); err != nil {
				return fmt.Errorf("write model: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "packed %d samples with %d values into %s\n",
				len(model.Samples), model.Dimensions, args[1])
			return err
		},
	}

	cmd.Flags().IntVar(&k, "k", classifier.DefaultK, "number of neighbours stored with the model")
	cmd.Flags().StringVar(&distance, "distance", string(geom.DistanceFuncTypeEuclidean), "distance function stored with the model")

	return cmd
}
