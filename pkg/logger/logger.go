package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

func Set(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func Get(ctx context.Context) (l *slog.Logger) {
	if v := ctx.Value(loggerKey); v != nil {
		if l = v.(*slog.Logger); l != nil {
			return
		}
	}
	l = slog.Default()
	return
}

// New builds a logger writing to `w`. `format` is `text` or `json`; `level`
// is any level name `slog` understands (`debug`, `info`, `warn`, `error`).
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level `%s`: %w", level, err)
	}

	opts := slog.HandlerOptions{Level: l}
	switch strings.ToLower(format) {
	case FormatText:
		return slog.New(slog.NewTextHandler(w, &opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &opts)), nil
	default:
		return nil, fmt.Errorf(
			"unsupported log format `%s`: wanted `%s` or `%s`",
			format,
			FormatText,
			FormatJSON,
		)
	}
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

type loggerKeyType string

const loggerKey loggerKeyType = "loggerKey"
