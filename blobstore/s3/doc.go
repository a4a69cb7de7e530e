// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.NewStoreFromConfig(ctx, "my-bucket",
//	    []func(*config.LoadOptions) error{config.WithRegion("us-east-1")},
//	    s3.WithPrefix("checkpoints/"),
//	)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for streamed segments
//   - CRC32C checksums on single-shot puts
//   - Automatic pagination for listing
package s3
