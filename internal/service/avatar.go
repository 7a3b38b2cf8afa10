package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"bitwise74/blog/internal/model"
	"bitwise74/blog/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// AvatarSize is the bounding box uploaded profile pictures are scaled into
const AvatarSize = 125

// MaxAvatarPixels caps each side of an uploaded image. Decoding allocates
// width*height pixels no matter how small the file is
const MaxAvatarPixels = 4096

var ErrBadImage = errors.New("could not decode image")

// AvatarStore persists processed profile pictures under a file name
type AvatarStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Avatars turns uploaded images into stored profile pictures
type Avatars struct {
	store AvatarStore
}

func NewAvatars(s AvatarStore) *Avatars {
	return &Avatars{store: s}
}

// Save resizes the image read from r and stores it as PNG under a new
// random name, which is returned
func (a *Avatars) Save(ctx context.Context, r io.Reader) (string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("%w, %w", ErrBadImage, err)
	}

	if cfg.Width > MaxAvatarPixels || cfg.Height > MaxAvatarPixels {
		return "", fmt.Errorf("%w, %dx%d exceeds %dx%d", ErrBadImage, cfg.Width, cfg.Height, MaxAvatarPixels, MaxAvatarPixels)
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return "", fmt.Errorf("%w, %w", ErrBadImage, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, ResizeAvatar(src)); err != nil {
		return "", fmt.Errorf("failed to encode avatar, %w", err)
	}

	hex, err := util.GenerateToken(8)
	if err != nil {
		return "", fmt.Errorf("failed to generate avatar name, %w", err)
	}

	name := hex + ".png"
	if err := a.store.Save(ctx, name, &buf, int64(buf.Len())); err != nil {
		return "", err
	}

	zap.L().Debug("Stored new avatar", zap.String("name", name))
	return name, nil
}

// Replace deletes an old avatar unless it's the shared default picture.
// Failures are only logged since the user already points at the new file
func (a *Avatars) Replace(ctx context.Context, old string) {
	if old == "" || old == model.DefaultImageFile {
		return
	}

	if err := a.store.Delete(ctx, old); err != nil {
		zap.L().Warn("Failed to delete old avatar", zap.String("name", old), zap.Error(err))
	}
}

// URL returns the address an avatar is served from
func (a *Avatars) URL(name string) string {
	if name == "" || name == model.DefaultImageFile {
		return "/static/profile_pics/" + model.DefaultImageFile
	}

	return a.store.URL(name)
}

// Store exposes the underlying storage backend
func (a *Avatars) Store() AvatarStore {
	return a.store
}

// ResizeAvatar scales img down so it fits in an AvatarSize square, keeping
// the aspect ratio. Smaller images are left as they are
func ResizeAvatar(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w <= AvatarSize && h <= AvatarSize {
		return img
	}

	nw, nh := AvatarSize, AvatarSize
	if w > h {
		nh = max(1, h*AvatarSize/w)
	} else if h > w {
		nw = max(1, w*AvatarSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	return dst
}

var defaultAvatar = sync.OnceValue(func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0x5f, G: 0x78, B: 0x8a, A: 0xff}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		zap.L().Error("Failed to render default avatar", zap.Error(err))
	}

	return buf.Bytes()
})

// DefaultAvatar returns the JPEG served for users without a picture
func DefaultAvatar() []byte {
	return defaultAvatar()
}
