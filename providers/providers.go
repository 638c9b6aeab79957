// Package providers registers every built-in provider with video_grabber.DefaultProviderRegistry when imported.
package providers

import (
	_ "github.com/alanbriolat/video-grabber/provider/raw"
	_ "github.com/alanbriolat/video-grabber/provider/youtube"
)
