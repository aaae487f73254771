package endpoints_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
)

func TestUploadImage(t *testing.T) {
	t.Parallel()

	t.Run("presigns a per-user key", func(t *testing.T) {
		t.Parallel()
		fs := &fakeStorage{}
		e := newEnv(t, endpoints.WithStorage(fs))

		res, err := e.call(4, "v1/upload/image", map[string]any{"imageExtension": "png"})
		require.NoError(t, err)
		up, ok := res.(endpoints.Upload)
		require.True(t, ok)

		assert.True(t, strings.HasPrefix(fs.key, "images/4/"), fs.key)
		assert.True(t, strings.HasSuffix(up.FileID, ".png"))
		assert.Equal(t, "images/4/"+up.FileID, fs.key)
		assert.Equal(t, "image/png", fs.contentType)
		assert.Equal(t, 10*time.Minute, fs.expiry)
		assert.Contains(t, up.URL, fs.key)
	})

	t.Run("unknown extension", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, endpoints.WithStorage(&fakeStorage{}))

		_, err := e.call(4, "v1/upload/image", map[string]any{"imageExtension": "exe"})
		requireUserError(t, err, api.CodeBadFormat)
	})

	t.Run("needs login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, endpoints.WithStorage(&fakeStorage{}))

		_, err := e.call(0, "v1/upload/image", map[string]any{"imageExtension": "png"})
		requireUserError(t, err, api.CodeLoginNeeded)
	})

	t.Run("storage not configured", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		_, err := e.call(4, "v1/upload/image", map[string]any{"imageExtension": "png"})
		require.ErrorIs(t, err, endpoints.ErrStorageDisabled)
	})
}
