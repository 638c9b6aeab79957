package providers

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-grabber"
)

func TestDefaultProviderRegistry(t *testing.T) {
	assert := assert_.New(t)
	registry := &video_grabber.DefaultProviderRegistry

	assert.Equal([]string{"youtube", "raw"}, registry.List())

	match, err := registry.Match("https://youtu.be/dQw4w9WgXcQ")
	if assert.NoError(err) {
		assert.Equal("youtube", match.ProviderName)
	}
	match, err = registry.Match("https://example.com/clip.mp4")
	if assert.NoError(err) {
		assert.Equal("raw", match.ProviderName)
	}
}
