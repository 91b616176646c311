// Package cluster groups k-mers into clusters around prototype k-mers.
//
// The Engine performs incremental greedy clustering: each pass seeds new
// clusters from unassigned k-mers, then every worker scans its own slice of
// the unassigned pool and attaches each k-mer to the first cluster whose
// prototype lies within the distance threshold. Assigned k-mers are swapped
// behind a per-worker high-water mark so later passes only visit the
// remainder. Passes repeat until nothing new is assigned.
//
// Prototypes can afterwards be replaced by cluster medoids, computed exactly
// or with the MEDDIT bandit approximation. KMedoids implements the
// alternative fixed-K partitioning seeded from the k-mers of one sequence.
package cluster
