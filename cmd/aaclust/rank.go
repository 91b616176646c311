package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/blobstore/resolve"
)

func newRankCmd(a *app) *cobra.Command {
	var queryIn, dbIn, out string

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank database signatures for every query signature",
		Long: `Rank writes, for every query, the closest database signatures by
Jaccard distance, nearest first, one line per query terminated by an
end-of-line marker. Database entries sharing no cluster with the query are
left out unless --pad-unmatched is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"query", queryIn}, [2]string{"db", dbIn}, [2]string{"out", out}); err != nil {
				return err
			}
			if err := aaclust.CheckOutputs([]string{queryIn, dbIn}, []string{out}); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			queries, err := readSignatures(ctx, queryIn)
			if err != nil {
				return err
			}
			db := queries
			if dbIn != queryIn {
				if db, err = readSignatures(ctx, dbIn); err != nil {
					return err
				}
			}

			store, name, err := resolve.File(ctx, out)
			if err != nil {
				return err
			}
			return p.RankTo(ctx, queries, db, store, name)
		},
	}

	f := cmd.Flags()
	f.StringVar(&queryIn, "query", "", "query signatures")
	f.StringVar(&dbIn, "db", "", "database signatures")
	f.StringVarP(&out, "out", "o", "", "ranking file to write")
	f.StringVar(&a.cfg.Rank.Mode, "mode", a.cfg.Rank.Mode, "similarity evaluation: merge or bits")
	f.IntVar(&a.cfg.Rank.MaxResults, "max-results", a.cfg.Rank.MaxResults, "hits kept per query")
	f.IntVar(&a.cfg.Rank.Workers, "workers", a.cfg.Rank.Workers, "queries ranked in parallel, 0 for one per CPU")
	f.BoolVar(&a.cfg.Rank.PadUnmatched, "pad-unmatched", a.cfg.Rank.PadUnmatched, "fill up with unrelated entries at distance 1")
	return cmd
}
