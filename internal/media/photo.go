// AngelaMos | 2026
// photo.go

package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const (
	photoContentType = "image/jpeg"
	photoQuality     = 90
)

var (
	errNotImage = core.BadRequestError("Not an image! Please upload only images.")
	errTooLarge = core.BadRequestError("Photo is too large")
)

// Photos turns uploaded profile pictures into square JPEGs and stores
// them.
type Photos struct {
	store    Store
	size     int
	maxBytes int64
	now      func() time.Time
}

func NewPhotos(store Store, size int, maxBytes int64) *Photos {
	return &Photos{
		store:    store,
		size:     size,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// SaveUserPhoto implements user.PhotoStore.
func (p *Photos) SaveUserPhoto(
	ctx context.Context,
	userID string,
	src io.Reader,
) (_ string, err error) {
	ctx, span := core.StartSpan(ctx, "media.save_user_photo",
		attribute.String("user.id", userID),
	)
	defer func() { core.EndSpan(span, err) }()

	data, err := io.ReadAll(io.LimitReader(src, p.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return "", errTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", errNotImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", errNotImage
	}

	img = imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(photoQuality)); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	key := fmt.Sprintf("user-%s-%d.jpeg", userID, p.now().Unix())
	span.SetAttributes(
		attribute.String("photo.source_type", mtype.String()),
		attribute.Int("photo.bytes", out.Len()),
	)

	return p.store.Put(ctx, key, &out, int64(out.Len()), photoContentType)
}
