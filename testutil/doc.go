// Package testutil provides testing utilities for aaclust.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random sequences, families of related
// sequences and random signatures.
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	seqs := rng.Sequences(100, 50, 200, alphabet.AASymbols[:20])
//
// # Families
//
//	center := rng.Sequence(30, symbols)
//	family := rng.Family(center, 64, 4, symbols)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(exact, approximate)
package testutil
