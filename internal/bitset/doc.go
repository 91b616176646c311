// Package bitset provides a dense bitset with sparse reset.
//
// Architecture:
//   - One uint64 word per 64 bits, allocated up front
//   - Words written since the last reset are remembered, so ClearAll costs
//     O(touched words) instead of O(size)
//   - Not safe for concurrent use; each worker owns its own BitSet
//
// Used internally for:
//   - Candidate de-duplication while ranking a query
package bitset
