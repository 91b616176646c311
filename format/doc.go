// Package format reads and writes the text artifacts of a clustering run:
// cluster files, prototype FASTA files, signature files and ranking output.
//
// Every artifact may be compressed. The compression is chosen by file
// extension through NewWriter and NewReader.
package format
