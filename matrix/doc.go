// Package matrix provides symbol similarity matrices: the embedded BLOSUM62
// table and a parser for custom matrices in NCBI text layout.
package matrix
