// Package fasta reads sequence records from FASTA input.
//
// Definition lines are split on '|'. One field holds the sequence id and an
// optional field holds ';'-separated class labels:
//
//	>1234|PF00069;PF07714|kinase
//	MKVLAAGIVGLLLAAPAQA...
//
// Gzip compressed input is detected from its magic bytes.
package fasta
