// Package platform decides where downloaded files go on each operating system.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Platform names, as reported by SystemName.
const (
	Windows = "Windows"
	Linux   = "Linux"
	Darwin  = "Darwin"
	Android = "Android"
)

const DefaultExternalStorage = "/sdcard"

var (
	ErrUnsupportedOS = errors.New("unsupported operating system")
)

// A PathFunc gives the download directory for a platform.
type PathFunc func(r *Resolver) (string, error)

// ExternalStorageFunc returns the root of the device's shared external storage.
type ExternalStorageFunc func() (string, error)

type Resolver struct {
	// OSName is one of the platform names; empty means SystemName().
	OSName string
	// HomeDir is the user's home directory; empty means os.UserHomeDir().
	HomeDir string
	// ExternalStorage is consulted on Android; nil means EnvExternalStorage.
	ExternalStorage ExternalStorageFunc
	Resolvers       map[string]PathFunc
}

// DefaultResolvers maps each supported platform to its download directory.
var DefaultResolvers = map[string]PathFunc{
	Windows: HomeDownloads,
	Linux:   HomeDownloads,
	Darwin:  HomeDownloads,
	Android: ExternalDownload,
}

func NewResolver(osName string) *Resolver {
	return &Resolver{
		OSName:    osName,
		Resolvers: DefaultResolvers,
	}
}

// OutputDir returns the download directory for the resolver's platform, or ErrUnsupportedOS.
func (r *Resolver) OutputDir() (string, error) {
	name := r.OSName
	if name == "" {
		name = SystemName()
	}
	f, ok := r.Resolvers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOS, name)
	}
	return f(r)
}

func (r *Resolver) homeDir() (string, error) {
	if r.HomeDir != "" {
		return r.HomeDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return home, nil
}

func (r *Resolver) externalStorage() (string, error) {
	if r.ExternalStorage != nil {
		return r.ExternalStorage()
	}
	return EnvExternalStorage()
}

// HomeDownloads is <home>/Downloads.
func HomeDownloads(r *Resolver) (string, error) {
	home, err := r.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}

// ExternalDownload is <external storage>/Download, the shared folder Android file managers and galleries look in.
func ExternalDownload(r *Resolver) (string, error) {
	storage, err := r.externalStorage()
	if err != nil {
		return "", fmt.Errorf("failed to get external storage directory: %w", err)
	}
	return filepath.Join(storage, "Download"), nil
}

// EnvExternalStorage reads $EXTERNAL_STORAGE, which Android sets for every process, falling back to /sdcard.
func EnvExternalStorage() (string, error) {
	if dir := os.Getenv("EXTERNAL_STORAGE"); dir != "" {
		return dir, nil
	}
	return DefaultExternalStorage, nil
}

// SystemName maps runtime.GOOS to a platform name. Unknown systems keep their GOOS name, which OutputDir rejects.
func SystemName() string {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin":
		return Darwin
	case "android":
		return Android
	default:
		return runtime.GOOS
	}
}
