package main

import (
	"github.com/spf13/pflag"

	"github.com/hupe1980/aaclust/config"
)

func addSequenceFlags(f *pflag.FlagSet, c *config.Sequences) {
	f.IntVar(&c.IDIndex, "id-index", c.IDIndex, "field of the '|'-separated definition line holding the sequence id")
	f.IntVar(&c.ClassIndex, "class-index", c.ClassIndex, "field holding ';'-separated class labels, -1 for none")
}

func addDistanceFlags(f *pflag.FlagSet, c *config.Distance) {
	f.StringVar(&c.Type, "distance", c.Type, "distance: HalperinEtAl, UngappedEdit, BlosumDistance or Custom")
	f.IntVar(&c.Matrix, "matrix", c.Matrix, "BLOSUM matrix id")
	f.StringVar(&c.MatrixFile, "matrix-file", c.MatrixFile, "similarity matrix file for the Custom distance")
}

// addKmerFlags registers the settings shared by everything that compares
// k-mers.
func addKmerFlags(f *pflag.FlagSet, c *config.Cluster) {
	f.IntVar(&c.K, "k", c.K, "k-mer length")
	f.IntVarP(&c.Threshold, "threshold", "t", c.Threshold, "largest distance at which a k-mer matches a prototype")
}

func addClusterFlags(f *pflag.FlagSet, c *config.Cluster) {
	f.IntVar(&c.Workers, "workers", c.Workers, "parallel partitions, 0 for one per CPU")
	f.Uint64Var(&c.Seed, "seed", c.Seed, "random seed")
	f.IntVar(&c.MinMedditSize, "min-meddit-size", c.MinMedditSize, "largest cluster whose medoid is computed exactly")
}

func addCatalogFlags(f *pflag.FlagSet, c *config.Catalog) {
	f.StringVar(&c.URI, "catalog", c.URI, "publish a manifest to this catalog URI")
	f.StringVar(&c.DynamoTable, "dynamo-table", c.DynamoTable, "DynamoDB table used to commit catalog versions")
}
