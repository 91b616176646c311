package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/blobstore/resolve"
)

func newEncodeCmd(a *app) *cobra.Command {
	var fastaIn, protosIn, out string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode sequences as cluster signatures",
		Long: `Encode maps every sequence to the set of prototypes its k-mers match.
In any mode a k-mer sets the bit of every prototype within the threshold;
in nearest mode only the bit of the closest one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"fasta", fastaIn}, [2]string{"protos", protosIn}, [2]string{"out", out}); err != nil {
				return err
			}
			if err := aaclust.CheckOutputs([]string{fastaIn, protosIn}, []string{out}); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			protos, err := readPrototypes(ctx, p, []string{protosIn})
			if err != nil {
				return err
			}
			recs, err := readSequences(ctx, fastaIn, a.cfg.Sequences)
			if err != nil {
				return err
			}
			sigs, err := p.Encode(ctx, recs, protos)
			if err != nil {
				return err
			}

			store, name, err := resolve.File(ctx, out)
			if err != nil {
				return err
			}
			return aaclust.WriteSignatures(ctx, store, name, sigs)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fastaIn, "fasta", "", "input sequences")
	f.StringVar(&protosIn, "protos", "", "prototype file")
	f.StringVarP(&out, "out", "o", "", "signature file to write")
	f.StringVar(&a.cfg.Encode.Mode, "mode", a.cfg.Encode.Mode, "k-mer assignment: any or nearest")
	f.IntVar(&a.cfg.Encode.Workers, "workers", a.cfg.Encode.Workers, "sequences encoded in parallel, 0 for one per CPU")
	f.IntVar(&a.cfg.Encode.CacheSize, "cache-size", a.cfg.Encode.CacheSize, "k-mer match cache entries, 0 disables the cache")
	addKmerFlags(f, &a.cfg.Cluster)
	addDistanceFlags(f, &a.cfg.Distance)
	addSequenceFlags(f, &a.cfg.Sequences)
	return cmd
}
