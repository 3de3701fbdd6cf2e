package util

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
)

// ConfigureSlog installs a tint handler writing to w as the default logger.
// Source paths are printed relative to the working dir so editors can jump to them.
func ConfigureSlog(w io.Writer, level slog.Level, color bool) {
	opts := &tint.Options{Level: level, AddSource: true, NoColor: !color}
	if wd, err := os.Getwd(); err == nil {
		unixPath := filepath.ToSlash(wd)
		opts.ReplaceAttr = func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key != slog.SourceKey {
				return attr
			}
			source, ok := attr.Value.Any().(*slog.Source)
			if !ok {
				return attr
			}
			var sb strings.Builder
			sb.WriteString("." + strings.TrimPrefix(filepath.ToSlash(source.File), unixPath))
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(source.Line))
			return slog.String(attr.Key, sb.String())
		}
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, opts)))
}

// ParseLevel maps debug/info/warn/error to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
