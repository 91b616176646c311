package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/blobstore/resolve"
	"github.com/hupe1980/aaclust/catalog"
	"github.com/hupe1980/aaclust/cluster"
)

func newClusterCmd(a *app) *cobra.Command {
	var fastaIn, clustersOut, protosOut string
	var protosIn []string

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster the k-mers of a FASTA file into a codebook",
		Long: `Cluster assigns every distinct k-mer of the input to the first cluster
whose prototype lies within the threshold. Unmatched k-mers seed new
clusters, --clusters in the first pass and --increment in every later one.

With --protos-in the run extends an existing codebook: its prototypes are
matched first and new clusters are only seeded for what remains. The flag
may be repeated; prototypes with the same text are merged and their sizes
added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"fasta", fastaIn}); err != nil {
				return err
			}
			if clustersOut == "" && protosOut == "" {
				return &aaclust.ErrConfig{Field: "clusters-out", Reason: "at least one of --clusters-out and --protos-out is required"}
			}
			if err := aaclust.CheckOutputs(append([]string{fastaIn}, protosIn...), []string{clustersOut, protosOut}); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			recs, err := readSequences(ctx, fastaIn, a.cfg.Sequences)
			if err != nil {
				return err
			}
			var existing []cluster.Prototype
			if len(protosIn) > 0 {
				if existing, err = readPrototypes(ctx, p, protosIn); err != nil {
					return err
				}
			}

			cb, err := p.Cluster(ctx, recs, existing)
			if err != nil {
				return err
			}
			return a.finish(ctx, p, cb, clustersOut, protosOut)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fastaIn, "fasta", "", "input sequences")
	f.StringArrayVar(&protosIn, "protos-in", nil, "existing prototypes to extend, repeatable")
	f.StringVar(&clustersOut, "clusters-out", "", "cluster file to write")
	f.StringVar(&protosOut, "protos-out", "", "prototype file to write")
	f.IntVar(&a.cfg.Cluster.Clusters, "clusters", a.cfg.Cluster.Clusters, "clusters seeded by the first pass")
	f.IntVar(&a.cfg.Cluster.Increment, "increment", a.cfg.Cluster.Increment, "clusters seeded by later passes, 0 for --clusters")
	f.StringVar(&a.cfg.Cluster.Medoids, "medoids", a.cfg.Cluster.Medoids, "medoid update after clustering: none, exact or meddit")
	addKmerFlags(f, &a.cfg.Cluster)
	addClusterFlags(f, &a.cfg.Cluster)
	addDistanceFlags(f, &a.cfg.Distance)
	addSequenceFlags(f, &a.cfg.Sequences)
	addCatalogFlags(f, &a.cfg.Catalog)
	return cmd
}

func newKMedoidsCmd(a *app) *cobra.Command {
	var fastaIn, clustersOut, protosOut string

	cmd := &cobra.Command{
		Use:   "kmedoids",
		Short: "Build a codebook with sequence-seeded k-medoids",
		Long: `K-medoids seeds the prototypes of each trial with the distinct k-mers of
one input sequence, then alternates assignment and medoid updates. The
trial covering the most k-mer occurrences wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required([2]string{"fasta", fastaIn}); err != nil {
				return err
			}
			if clustersOut == "" && protosOut == "" {
				return &aaclust.ErrConfig{Field: "clusters-out", Reason: "at least one of --clusters-out and --protos-out is required"}
			}
			if err := aaclust.CheckOutputs([]string{fastaIn}, []string{clustersOut, protosOut}); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			recs, err := readSequences(ctx, fastaIn, a.cfg.Sequences)
			if err != nil {
				return err
			}
			cb, err := p.KMedoids(ctx, recs)
			if err != nil {
				return err
			}
			return a.finish(ctx, p, cb, clustersOut, protosOut)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fastaIn, "fasta", "", "input sequences")
	f.StringVar(&clustersOut, "clusters-out", "", "cluster file to write")
	f.StringVar(&protosOut, "protos-out", "", "prototype file to write")
	f.IntVar(&a.cfg.KMedoids.Trials, "trials", a.cfg.KMedoids.Trials, "number of seed sequences tried")
	f.IntVar(&a.cfg.KMedoids.Iterations, "iterations", a.cfg.KMedoids.Iterations, "assignment and medoid rounds per trial")
	f.StringVar(&a.cfg.KMedoids.Sort, "sort", a.cfg.KMedoids.Sort, "seed sequence order: random, longest or shortest")
	f.StringVar(&a.cfg.KMedoids.Select, "select", a.cfg.KMedoids.Select, "prototype choice: nearest or greedy")
	f.StringVar(&a.cfg.KMedoids.Medoids, "medoids", a.cfg.KMedoids.Medoids, "medoid update: none, exact or meddit")
	addKmerFlags(f, &a.cfg.Cluster)
	addClusterFlags(f, &a.cfg.Cluster)
	addDistanceFlags(f, &a.cfg.Distance)
	addSequenceFlags(f, &a.cfg.Sequences)
	addCatalogFlags(f, &a.cfg.Catalog)
	return cmd
}

// finish writes the codebook and publishes it when a catalog is configured.
func (a *app) finish(ctx context.Context, p *aaclust.Pipeline, cb *aaclust.Codebook, clustersOut, protosOut string) error {
	if err := writeCodebook(ctx, cb, clustersOut, protosOut); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "codebook written",
		"clusters", len(cb.Clusters),
		"created", cb.Created,
		"assigned", cb.Assigned,
		"excluded", cb.Excluded,
		"unassigned", cb.Unassigned,
		"passes", cb.Passes,
	)

	if a.cfg.Catalog.URI == "" {
		return nil
	}
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	files := make(map[string]string)
	if clustersOut != "" {
		files["clusters"] = clustersOut
	}
	if protosOut != "" {
		files["prototypes"] = protosOut
	}
	m := p.Manifest(cb, files)
	version, err := cat.Publish(ctx, m)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "codebook published",
		"catalog", a.cfg.Catalog.URI,
		"version", version,
		"run", m.RunID,
	)
	return nil
}

func (a *app) catalog(ctx context.Context) (catalog.Catalog, error) {
	store, err := resolve.Store(ctx, a.cfg.Catalog.URI)
	if err != nil {
		return nil, err
	}
	if a.cfg.Catalog.DynamoTable == "" {
		return catalog.NewStoreCatalog(store, ""), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewDynamoCatalog(store, dynamodb.NewFromConfig(awsCfg), a.cfg.Catalog.DynamoTable, a.cfg.Catalog.URI), nil
}
