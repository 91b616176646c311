// Package kmer collects the distinct k-mers of a sequence collection.
//
// Each distinct k-length substring is stored once, in first-occurrence
// order, together with its packed word codes and every (sequence, offset)
// where it occurs. Other packages refer to k-mers by their int32 handle.
package kmer
