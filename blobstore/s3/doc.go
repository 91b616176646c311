// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "runs/2024-01/")
//	if err != nil {
//	    return err
//	}
//	w, err := store.Create(ctx, "protos.fa.zst")
//
// # Features
//
//   - Streaming multipart uploads through the S3 transfer manager
//   - CRC32C integrity checksums on every upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
