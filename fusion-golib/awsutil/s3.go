package awsutil

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/fusionbench/fusionbench/fusion-golib/envutil"
)

var (
	// Most fusion archives live on S3-compatible object stores (Ceph RGW,
	// MinIO) rather than AWS proper, so the endpoint is configurable and
	// anonymous access is the default.
	endpoint  = envutil.GetenvDefault("FUSION_S3_ENDPOINT", "")
	region    = envutil.GetenvDefault("AWS_REGION", "us-east-1")
	anonymous = envutil.GetenvDefault("FUSION_S3_ANONYMOUS", "1") == "1"
)

// SetEndpoint overrides the S3-compatible endpoint used by all clients.
// An empty endpoint selects AWS with the configured region.
func SetEndpoint(ep string) {
	endpoint = ep
}

// SetAnonymous toggles anonymous (unsigned) requests.
func SetAnonymous(anon bool) {
	anonymous = anon
}

// IsS3URI returns true if the path is an s3 uri.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// ValidateURI checks whether the given uri points to S3.
func ValidateURI(uri string) (*url.URL, error) {
	s3url, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if s3url.Scheme != "s3" {
		return nil, fmt.Errorf("url %s is not an s3 path", s3url.String())
	}
	return s3url, nil
}

// NewS3Client creates an s3 client for the configured endpoint.
func NewS3Client() (*s3.S3, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		// non-AWS stores generally require path-style addressing
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	if anonymous {
		cfg = cfg.WithCredentials(credentials.AnonymousCredentials)
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return s3.New(sess, cfg), nil
}

// NewS3Reader returns an io.ReadCloser that will read the contents
// of the object pointed to by the uri. URI will be of the form
// s3://bucket-name/path/to/object
func NewS3Reader(uri string) (io.ReadCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := NewS3Client()
	if err != nil {
		return nil, err
	}

	key := strings.TrimPrefix(s3url.Path, "/")
	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s3url.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// IsNotExist reports whether err indicates a missing object or bucket.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}

// S3PutObject writes the contents of the specified reader
// to the specified s3 URI.
func S3PutObject(r io.ReadSeeker, uri string) error {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return err
	}

	client, err := NewS3Client()
	if err != nil {
		return err
	}

	key := strings.TrimPrefix(s3url.Path, "/")
	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s3url.Host),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

type bufferedS3Writer struct {
	f     *os.File
	s3uri *url.URL
}

// Write writes to disk
func (w bufferedS3Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close flushes to disk, copies the written data to s3, and closes the file
func (w bufferedS3Writer) Close() error {
	defer os.Remove(w.f.Name()) // delete the buffer file from disk
	defer w.f.Close()           // after closing the buffer file handle

	w.f.Sync()
	if _, err := w.f.Seek(0, 0); err != nil {
		return err
	}
	return S3PutObject(w.f, w.s3uri.String())
}

func (w bufferedS3Writer) Name() string {
	return w.s3uri.String()
}

// NewBufferedS3Writer returns an io.WriteCloser that will write
// to disk and upload to S3 on Close
func NewBufferedS3Writer(uri string) (NamedWriteCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	f, err := ioutil.TempFile("", "s3buffer")
	if err != nil {
		return nil, err
	}
	return bufferedS3Writer{f: f, s3uri: s3url}, nil
}
