package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/community-eats/apiserver/types"
	"github.com/google/uuid"
)

// ErrStorageUnavailable is returned when no object storage backend is
// configured for image uploads.
var ErrStorageUnavailable = errors.New("object storage is not configured")

// ErrInvalidImage is returned when the uploaded file is not an image.
var ErrInvalidImage = errors.New("uploaded file is not an image")

// AttachImage stores an uploaded image in object storage under a fresh key
// and rewrites the supply's imageLink to the object URL.
func (s *SupplyService) AttachImage(ctx context.Context, id int, filename, contentType string, data []byte) (types.Supply, error) {
	if s.storage == nil {
		return types.Supply{}, ErrStorageUnavailable
	}
	if len(data) == 0 || !strings.HasPrefix(contentType, "image/") {
		return types.Supply{}, ErrInvalidImage
	}

	supply, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Supply{}, err
	}

	key := fmt.Sprintf("supplies/%d/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Supply{}, err
	}

	supply.ImageLink = s.storage.ObjectURL(key)
	updated, err := s.repo.Update(ctx, supply)
	if err != nil {
		return types.Supply{}, err
	}

	s.publish(ctx, "updated", updated)
	return updated, nil
}
