package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variables:
//
//	NEOCERTIFY_BLOB_DRIVER=fs|s3|memory          (default fs)
//	NEOCERTIFY_BLOB_FS_ROOT=<dir>                (fs driver, default ./blobdata)
//	NEOCERTIFY_BLOB_S3_BUCKET=<bucket>           (required for s3)
//	NEOCERTIFY_BLOB_S3_REGION=<region>           (default us-east-1)
//	NEOCERTIFY_BLOB_S3_ENDPOINT=<url>            (optional, MinIO)
//	NEOCERTIFY_BLOB_S3_PATH_STYLE=true|false     (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY    (optional, default chain)
const (
	envDriver      = "NEOCERTIFY_BLOB_DRIVER"
	envFSRoot      = "NEOCERTIFY_BLOB_FS_ROOT"
	envS3Bucket    = "NEOCERTIFY_BLOB_S3_BUCKET"
	envS3Region    = "NEOCERTIFY_BLOB_S3_REGION"
	envS3Endpoint  = "NEOCERTIFY_BLOB_S3_ENDPOINT"
	envS3PathStyle = "NEOCERTIFY_BLOB_S3_PATH_STYLE"
)

// Open constructs the blob store selected by the process environment.
func Open(ctx context.Context) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv(envDriver))))
	switch driver {
	case "", DriverFilesystem:
		return NewFSStore(os.Getenv(envFSRoot))
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverS3:
		bucket := os.Getenv(envS3Bucket)
		if bucket == "" {
			return nil, fmt.Errorf("%s required for s3 driver", envS3Bucket)
		}
		return NewS3Store(ctx, S3Config{
			Bucket:    bucket,
			Region:    os.Getenv(envS3Region),
			Endpoint:  os.Getenv(envS3Endpoint),
			PathStyle: strings.EqualFold(os.Getenv(envS3PathStyle), "true"),
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
