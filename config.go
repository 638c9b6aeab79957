package video_grabber

import (
	"strings"
	"text/template"
)

const DefaultFilenameTemplate = "{{.Info.Title}}.{{.Stream.Ext}}"

// DownloadConfig decides the names of downloaded files.
type DownloadConfig struct {
	FilenameTemplate *template.Template
}

func NewDownloadConfig() DownloadConfig {
	return DownloadConfig{
		FilenameTemplate: template.Must(template.New("filename").Parse(DefaultFilenameTemplate)),
	}
}

// ParseFilenameTemplate builds a DownloadConfig from a template string with .Info (SourceInfo) and .Stream (*Stream).
func ParseFilenameTemplate(text string) (DownloadConfig, error) {
	tmpl, err := template.New("filename").Option("missingkey=error").Parse(text)
	if err != nil {
		return DownloadConfig{}, err
	}
	return DownloadConfig{FilenameTemplate: tmpl}, nil
}

// Filename renders the (sanitised) file name for a stream of a source.
func (c DownloadConfig) Filename(info SourceInfo, stream *Stream) (string, error) {
	args := filenameTemplateArgs{
		Info:   info,
		Stream: stream,
	}
	builder := strings.Builder{}
	if err := c.FilenameTemplate.Execute(&builder, &args); err != nil {
		return "", err
	}
	return SanitizeFilename(builder.String()), nil
}

type filenameTemplateArgs struct {
	Info   SourceInfo
	Stream *Stream
}

const fallbackFilename = "download"

// SanitizeFilename replaces characters that aren't valid in file names on common platforms.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		default:
			return r
		}
	}, name)
	name = strings.Trim(name, " .")
	if strings.Trim(name, "_") == "" {
		return fallbackFilename
	}
	return name
}
