package imap

import (
	"github.com/sirupsen/logrus"
)

// maxLoggedPreview bounds how much of a command or response is logged
// at debug level, so a multi-megabyte FETCH literal doesn't flood
// stderr.
const maxLoggedPreview = 300

func preview(s string) string {
	if len(s) > maxLoggedPreview {
		return s[:maxLoggedPreview] + "..."
	}
	return s
}

// logSent logs an outgoing command line at debug level.
func logSent(log *logrus.Logger, tag, command string) {
	if log == nil {
		return
	}
	log.WithField("tag", tag).Debugf("-> %s", preview(command))
}

// logReceived logs a complete accumulated response at debug level.
func logReceived(log *logrus.Logger, tag, response string) {
	if log == nil {
		return
	}
	log.WithField("tag", tag).Debugf("<- %s", preview(response))
}
