// Package blobstore provides storage abstraction for clustering artifacts.
//
// Store is the interface for reading and writing named blobs: sequence
// inputs, cluster and prototype files, signatures, rankings and run
// manifests. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory-mapped
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with streaming multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// The resolve package maps URIs such as s3://bucket/prefix to a Store.
package blobstore
