// Package logging configures the process-wide logrus backend.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Setup points logrus at w with the given level and format. Unknown level
// names fall back to warn so a typo in the config never silences errors.
func Setup(w io.Writer, level string, json bool) {
	logrus.SetOutput(w)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logrus.SetLevel(parsed)
}
