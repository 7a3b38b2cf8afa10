package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	a "bitwise74/blog/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrBadAvatarName = errors.New("invalid avatar name")

// LocalAvatarStore keeps avatars in a directory on disk
type LocalAvatarStore struct {
	Dir string
}

func NewLocalAvatarStore(dir string) (*LocalAvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory, %w", err)
	}

	return &LocalAvatarStore{Dir: dir}, nil
}

// Path returns where an avatar lives on disk. Names that would escape the
// directory are rejected
func (s *LocalAvatarStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrBadAvatarName
	}

	return filepath.Join(s.Dir, name), nil
}

func (s *LocalAvatarStore) Save(_ context.Context, name string, r io.Reader, _ int64) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create avatar file, %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("failed to write avatar file, %w", err)
	}

	return f.Close()
}

func (s *LocalAvatarStore) Delete(_ context.Context, name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete avatar file, %w", err)
	}

	return nil
}

func (s *LocalAvatarStore) URL(name string) string {
	return "/static/profile_pics/" + name
}

const avatarKeyPrefix = "profile_pics/"

// S3AvatarStore keeps avatars in a bucket that is publicly readable
// under PublicURL
type S3AvatarStore struct {
	S3        *a.S3Client
	PublicURL string
	uploader  *manager.Uploader
}

func NewS3AvatarStore(c *a.S3Client, publicURL string) *S3AvatarStore {
	return &S3AvatarStore{
		S3:        c,
		PublicURL: strings.TrimSuffix(publicURL, "/"),
		uploader:  manager.NewUploader(c.C),
	}
}

func (s *S3AvatarStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        s.S3.Bucket,
		Key:           aws.String(avatarKeyPrefix + name),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("image/png"),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload avatar to s3, %w", err)
	}

	return nil
}

func (s *S3AvatarStore) Delete(ctx context.Context, name string) error {
	_, err := s.S3.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.S3.Bucket,
		Key:    aws.String(avatarKeyPrefix + name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar from s3, %w", err)
	}

	return nil
}

func (s *S3AvatarStore) URL(name string) string {
	return s.PublicURL + "/" + avatarKeyPrefix + name
}
