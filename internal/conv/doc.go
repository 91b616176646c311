// Package conv provides checked integer conversions.
//
// Sequence, k-mer and prototype positions are stored as fixed-width
// integers. The helpers here validate counts taken from input files before
// they are narrowed. Loop indices already bounded by a checked count use
// plain casts.
package conv
