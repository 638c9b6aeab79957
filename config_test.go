package video_grabber

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("Rick Astley - Never Gonna Give You Up.mp4", SanitizeFilename("Rick Astley - Never Gonna Give You Up.mp4"))
	assert.Equal("AC_DC_ Live_.mp4", SanitizeFilename(`AC/DC: Live?.mp4`))
	assert.Equal("tabs.mp4", SanitizeFilename("\ttabs.mp4\n"))
	assert.Equal("hidden", SanitizeFilename("..hidden. "))
	assert.Equal(fallbackFilename, SanitizeFilename(""))
	assert.Equal(fallbackFilename, SanitizeFilename("///"))
	assert.Equal(fallbackFilename, SanitizeFilename(".."))
}

func TestDownloadConfig_Filename(t *testing.T) {
	assert := assert_.New(t)
	info := SourceInfo{ID: "dQw4w9WgXcQ", Title: "A/B test"}
	stream := &Stream{ID: "18", MimeType: "video/mp4", Quality: "360p"}

	name, err := NewDownloadConfig().Filename(info, stream)
	assert.NoError(err)
	assert.Equal("A_B test.mp4", name)

	config, err := ParseFilenameTemplate("{{.Info.ID}} [{{.Stream.Quality}}].{{.Stream.Ext}}")
	assert.NoError(err)
	name, err = config.Filename(info, stream)
	assert.NoError(err)
	assert.Equal("dQw4w9WgXcQ [360p].mp4", name)

	_, err = ParseFilenameTemplate("{{.Info.Title")
	assert.Error(err)
	config, err = ParseFilenameTemplate("{{.Info.Missing}}")
	assert.NoError(err)
	_, err = config.Filename(info, stream)
	assert.Error(err)
}
