package platform

import (
	"errors"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestHomeDownloads(t *testing.T) {
	assert := assert_.New(t)
	home := filepath.Join("home", "user")
	for _, name := range []string{Windows, Linux, Darwin} {
		r := NewResolver(name)
		r.HomeDir = home
		dir, err := r.OutputDir()
		if assert.NoError(err, name) {
			assert.Equal(filepath.Join(home, "Downloads"), dir, name)
		}
	}
}

func TestAndroid(t *testing.T) {
	assert := assert_.New(t)
	r := NewResolver(Android)
	r.ExternalStorage = func() (string, error) { return "/storage/emulated/0", nil }
	dir, err := r.OutputDir()
	assert.NoError(err)
	assert.Equal(filepath.Join("/storage/emulated/0", "Download"), dir)

	errBridge := errors.New("no bridge")
	r.ExternalStorage = func() (string, error) { return "", errBridge }
	_, err = r.OutputDir()
	assert.ErrorIs(err, errBridge)
}

func TestEnvExternalStorage(t *testing.T) {
	assert := assert_.New(t)
	t.Setenv("EXTERNAL_STORAGE", "/mnt/sdcard")
	dir, err := ExternalDownload(NewResolver(Android))
	assert.NoError(err)
	assert.Equal(filepath.Join("/mnt/sdcard", "Download"), dir)

	t.Setenv("EXTERNAL_STORAGE", "")
	dir, err = EnvExternalStorage()
	assert.NoError(err)
	assert.Equal(DefaultExternalStorage, dir)
}

func TestUnsupportedOS(t *testing.T) {
	assert := assert_.New(t)
	for _, name := range []string{"Plan9", "linux", "FreeBSD"} {
		_, err := NewResolver(name).OutputDir()
		assert.ErrorIs(err, ErrUnsupportedOS, name)
	}
}

func TestCustomResolvers(t *testing.T) {
	assert := assert_.New(t)
	r := &Resolver{
		OSName: "FreeBSD",
		Resolvers: map[string]PathFunc{
			"FreeBSD": func(r *Resolver) (string, error) { return "/var/downloads", nil },
		},
	}
	dir, err := r.OutputDir()
	assert.NoError(err)
	assert.Equal("/var/downloads", dir)
}

func TestSystemName(t *testing.T) {
	assert := assert_.New(t)
	// Whatever we're running on, it shouldn't be empty
	assert.NotEmpty(SystemName())
}
