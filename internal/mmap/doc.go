// Package mmap maps input files read-only into memory.
//
// Sequence and signature inputs are scanned front to back once, so the
// mapping is advised for sequential access. On platforms without mmap the
// file is read into memory instead.
package mmap
