package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// Reader is the archive index: it lists archived trade objects and checks
// whether a key is taken before the archiver claims it.
type Reader struct {
	api    *s3.Client
	bucket string
}

// NewReader creates a Reader over the client's bucket.
func NewReader(c *Client) *Reader {
	return &Reader{api: c.S3(), bucket: c.Bucket()}
}

// List returns every object under prefix, sorted by key.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	pages := s3.NewListObjectsV2Paginator(r.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []domain.BlobInfo
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, blobInfo(obj))
		}
	}
	slices.SortFunc(objects, func(a, b domain.BlobInfo) int { return strings.Compare(a.Path, b.Path) })
	return objects, nil
}

// Exists reports whether key is already stored.
func (r *Reader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case missing(err):
		return false, nil
	default:
		return false, fmt.Errorf("s3blob: head %s: %w", key, err)
	}
}

func blobInfo(obj types.Object) domain.BlobInfo {
	key := aws.ToString(obj.Key)
	info := domain.BlobInfo{
		Path:        key,
		Size:        aws.ToInt64(obj.Size),
		ContentType: contentTypeFor(key),
	}
	if obj.LastModified != nil {
		info.LastModified = obj.LastModified.UTC()
	}
	return info
}

// contentTypeFor infers the type from the key; ListObjectsV2 does not
// return it.
func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".jsonl":
		return jsonlContentType
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// missing matches the typed not-found errors and bare 404s from
// S3-compatible stores such as MinIO.
func missing(err error) bool {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
		status   interface{ HTTPStatusCode() int }
	)
	switch {
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return true
	case errors.As(err, &status):
		return status.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
