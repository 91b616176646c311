// Package config loads run settings from YAML.
//
// Load starts from Default and overlays the file, rejecting unknown keys.
// Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/internal/progress"
	"github.com/hupe1980/aaclust/rank"
	"github.com/hupe1980/aaclust/signature"
)

// ValidationError reports an invalid setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Sequences configures FASTA input.
type Sequences struct {
	IDIndex    int `yaml:"id_index"`
	ClassIndex int `yaml:"class_index"`
}

// Distance configures the k-mer distance.
type Distance struct {
	Type       string `yaml:"type"`
	Matrix     int    `yaml:"matrix"`
	MatrixFile string `yaml:"matrix_file"`
}

// Cluster configures incremental clustering.
type Cluster struct {
	K             int    `yaml:"k"`
	Threshold     int    `yaml:"threshold"`
	Clusters      int    `yaml:"clusters"`
	Increment     int    `yaml:"increment"`
	Seed          uint64 `yaml:"seed"`
	Workers       int    `yaml:"workers"`
	Medoids       string `yaml:"medoids"`
	MinMedditSize int    `yaml:"min_meddit_size"`
}

// KMedoids configures sequence-seeded k-medoids.
type KMedoids struct {
	Trials     int    `yaml:"trials"`
	Iterations int    `yaml:"iterations"`
	Sort       string `yaml:"sort"`
	Select     string `yaml:"select"`
	Medoids    string `yaml:"medoids"`
}

// Encode configures signature encoding.
type Encode struct {
	Mode      string `yaml:"mode"`
	Workers   int    `yaml:"workers"`
	CacheSize int    `yaml:"cache_size"`
}

// Rank configures signature ranking.
type Rank struct {
	Mode         string `yaml:"mode"`
	MaxResults   int    `yaml:"max_results"`
	Workers      int    `yaml:"workers"`
	PadUnmatched bool   `yaml:"pad_unmatched"`
}

// Catalog configures codebook publication.
type Catalog struct {
	// URI is the store holding manifests, e.g. s3://bucket/codebooks.
	URI string `yaml:"uri"`
	// DynamoTable enables DynamoDB version commits when set.
	DynamoTable string `yaml:"dynamo_table"`
}

// Log configures logging.
type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Config is the complete run configuration.
type Config struct {
	Sequences Sequences `yaml:"sequences"`
	Distance  Distance  `yaml:"distance"`
	Cluster   Cluster   `yaml:"cluster"`
	KMedoids  KMedoids  `yaml:"kmedoids"`
	Encode    Encode    `yaml:"encode"`
	Rank      Rank      `yaml:"rank"`
	Catalog   Catalog   `yaml:"catalog"`
	Log       Log       `yaml:"log"`
	// Progress is off, log or bar.
	Progress string `yaml:"progress"`
	// Metrics is the listen address of the Prometheus endpoint; empty
	// disables it.
	Metrics string `yaml:"metrics"`
}

// Default returns the built-in settings.
func Default() Config {
	km := cluster.DefaultKMedoidsOptions()
	return Config{
		Sequences: Sequences{IDIndex: 0, ClassIndex: -1},
		Distance:  Distance{Type: distance.HalperinEtAl.String(), Matrix: 62},
		Cluster: Cluster{
			K:             30,
			Threshold:     0,
			Clusters:      cluster.DefaultClusterIncrement,
			Seed:          1,
			Medoids:       cluster.None.String(),
			MinMedditSize: cluster.DefaultMinMedditSize,
		},
		KMedoids: KMedoids{
			Trials:     km.Trials,
			Iterations: km.Iterations,
			Sort:       km.Sort.String(),
			Select:     km.Select.String(),
			Medoids:    km.Medoids.String(),
		},
		Encode:   Encode{Mode: signature.Any.String(), CacheSize: signature.DefaultCacheSize},
		Rank:     Rank{Mode: rank.Merge.String(), MaxResults: rank.DefaultMaxResults},
		Log:      Log{Format: "text", Level: "info"},
		Progress: progress.Off.String(),
	}
}

// Load reads the YAML file at path over Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over Default. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enum names.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field, reason string) {
		if !ok {
			errs = append(errs, &ValidationError{Field: field, Reason: reason})
		}
	}
	parses := func(field string, err error) {
		if err != nil {
			errs = append(errs, &ValidationError{Field: field, Reason: err.Error()})
		}
	}

	check(c.Sequences.IDIndex >= 0, "sequences.id_index", "must not be negative")

	typ, err := distance.ParseType(c.Distance.Type)
	parses("distance.type", err)
	if err == nil && typ == distance.Custom {
		check(c.Distance.MatrixFile != "", "distance.matrix_file", "required for the custom distance")
	}

	check(c.Cluster.K > 0, "cluster.k", "must be positive")
	check(c.Cluster.Threshold >= 0, "cluster.threshold", "must not be negative")
	check(c.Cluster.Clusters >= 0, "cluster.clusters", "must not be negative")
	check(c.Cluster.Increment >= 0, "cluster.increment", "must not be negative")
	check(c.Cluster.Workers >= 0, "cluster.workers", "must not be negative")
	_, err = cluster.ParseMedoidMode(c.Cluster.Medoids)
	parses("cluster.medoids", err)

	check(c.KMedoids.Trials > 0, "kmedoids.trials", "must be positive")
	check(c.KMedoids.Iterations > 0, "kmedoids.iterations", "must be positive")
	_, err = cluster.ParseSortMode(c.KMedoids.Sort)
	parses("kmedoids.sort", err)
	_, err = cluster.ParseSelectMode(c.KMedoids.Select)
	parses("kmedoids.select", err)
	_, err = cluster.ParseMedoidMode(c.KMedoids.Medoids)
	parses("kmedoids.medoids", err)

	_, err = signature.ParseMode(c.Encode.Mode)
	parses("encode.mode", err)
	check(c.Encode.CacheSize >= 0, "encode.cache_size", "must not be negative")

	_, err = rank.ParseMode(c.Rank.Mode)
	parses("rank.mode", err)
	check(c.Rank.MaxResults > 0, "rank.max_results", "must be positive")

	_, err = progress.ParseMode(c.Progress)
	parses("progress", err)

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		check(false, "log.format", "must be text or json")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "log.level", "must be debug, info, warn or error")
	}

	return errors.Join(errs...)
}
