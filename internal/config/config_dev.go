//go:build dev

package config

import "flag"

var testFlag = flag.Bool("test", false,
	"keep config and session under .letstore-test, for running against a dev server")

func confDirName() string {
	if *testFlag {
		return ".letstore-test"
	}
	return appConfDir
}
