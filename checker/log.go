package checker

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "checker")
