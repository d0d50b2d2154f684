// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	logger *logrus.Logger = nil
)

const MaxLogLevel = logrus.TraceLevel

func init() {
	logger = logrus.New()

	logger.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
}

// SetLogger replaces the logger used by the driver.
func SetLogger(loggerInstance *logrus.Logger) {
	logger = loggerInstance
}

func log() *logrus.Entry {
	return logger.WithField("prefix", "stlink")
}
