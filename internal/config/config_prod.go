//go:build !dev

package config

func confDirName() string { return appConfDir }
