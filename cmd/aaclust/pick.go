package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/cluster"
)

func newPickCmd(a *app) *cobra.Command {
	var clustersIn, fastaIn, clustersOut, protosOut string
	var protosIn []string
	var n int
	var byClass bool

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Keep the largest clusters of a codebook",
		Long: `Pick selects the n clusters covering the most k-mer occurrences and
writes them, largest first, together with their prototypes. Repeated
--protos-in files are merged by prototype text.

With --by-class the n largest clusters of every class label are kept
instead. A cluster counts toward a class by its occurrences in sequences
of that class, read from --fasta with --class-index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"clusters-in", clustersIn}); err != nil {
				return err
			}
			if n < 0 {
				return &aaclust.ErrConfig{Field: "n", Reason: "must not be negative"}
			}
			if byClass {
				if err := required([2]string{"fasta", fastaIn}); err != nil {
					return err
				}
				if a.cfg.Sequences.ClassIndex < 0 {
					return &aaclust.ErrConfig{Field: "class-index", Reason: "required with --by-class"}
				}
			}
			inputs := append([]string{clustersIn, fastaIn}, protosIn...)
			if err := aaclust.CheckOutputs(inputs, []string{clustersOut, protosOut}); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			recs, err := readClusters(ctx, clustersIn)
			if err != nil {
				return err
			}
			var protos []cluster.Prototype
			if len(protosIn) > 0 {
				if protos, err = readPrototypes(ctx, p, protosIn); err != nil {
					return err
				}
			}

			var sel *aaclust.Selection
			if byClass {
				seqs, err := readSequences(ctx, fastaIn, a.cfg.Sequences)
				if err != nil {
					return err
				}
				sel = aaclust.PickByClass(recs, protos, aaclust.ClassLabels(seqs), n)
			} else {
				sel = aaclust.Pick(recs, protos, n)
			}

			a.logger.InfoContext(ctx, "clusters picked", "available", len(recs), "picked", len(sel.Clusters), "by_class", byClass)
			return writeSelection(ctx, sel, clustersOut, protosOut)
		},
	}

	f := cmd.Flags()
	f.StringVar(&clustersIn, "clusters-in", "", "cluster file to pick from")
	f.StringArrayVar(&protosIn, "protos-in", nil, "prototype file holding the cluster sizes, repeatable")
	f.StringVar(&clustersOut, "clusters-out", "", "cluster file to write")
	f.StringVar(&protosOut, "protos-out", "", "prototype file to write")
	f.IntVar(&n, "n", 100, "number of clusters to keep, per class with --by-class")
	f.BoolVar(&byClass, "by-class", false, "keep the largest clusters of every class label")
	f.StringVar(&fastaIn, "fasta", "", "labelled sequences for --by-class")
	addSequenceFlags(f, &a.cfg.Sequences)
	return cmd
}
