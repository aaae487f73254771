package endpoints

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/storage"
)

// uploadExpiry bounds how long a presigned upload URL stays valid.
const uploadExpiry = 10 * time.Minute

// ErrStorageDisabled is returned for uploads when no bucket is configured.
var ErrStorageDisabled = errors.New("endpoints: storage not configured")

// Upload tells the client where to PUT the file and what to reference it by.
type Upload struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
}

func (s *Service) registerUploads(reg *api.Registry) {
	reg.Register("v1/upload/image", api.Schema{
		"imageExtension": {Type: api.String, Required: true, Options: []string{"png", "jpg", "jpeg", "gif"}},
	}, api.Handle(s.uploadImage), api.Action())
}

func (s *Service) uploadImage(ctx context.Context, r *api.Request, p api.Params) (Upload, error) {
	if err := r.RequireUser(); err != nil {
		return Upload{}, err
	}
	if s.storage == nil {
		return Upload{}, ErrStorageDisabled
	}

	ext := p.String("imageExtension")
	contentType, err := storage.ImageContentType(ext)
	if err != nil {
		return Upload{}, api.ParamError(api.CodeBadFormat, "imageExtension")
	}

	fileID := uuid.NewString() + "." + ext
	key, err := storage.BuildKey("images", strconv.Itoa(r.UserID), fileID)
	if err != nil {
		return Upload{}, fmt.Errorf("build upload key: %w", err)
	}

	url, err := s.storage.PresignUpload(ctx, key, contentType, uploadExpiry)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}
	return Upload{FileID: fileID, URL: url}, nil
}
