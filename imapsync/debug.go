package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger builds the run's logrus.Logger: text output to stderr,
// debug-level protocol tracing gated by verbose (the CLI's -v flag),
// so stdout stays reserved for the §6 summary line the user greps for.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
