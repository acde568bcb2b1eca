package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/VideoTubeGo/internal/config"
	"github.com/utafrali/VideoTubeGo/internal/storage/cloudinary"
	"github.com/utafrali/VideoTubeGo/internal/storage/memory"
)

func TestNewUploader(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		up, err := newUploader(&config.Config{MediaProvider: config.MediaProviderMemory, MediaBaseURL: "http://localhost/media"})
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, up)
	})

	t.Run("cloudinary", func(t *testing.T) {
		up, err := newUploader(&config.Config{
			MediaProvider:       config.MediaProviderCloudinary,
			CloudinaryCloudName: "demo",
			CloudinaryAPIKey:    "key",
			CloudinaryAPISecret: "secret",
		})
		require.NoError(t, err)
		assert.IsType(t, &cloudinary.Storage{}, up)
	})
}
