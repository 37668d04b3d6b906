package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INF [encoding 0f3a9c1e] encode progress frame=120 percent=40 eta=01:12
//
// The component and job id move into the bracketed label. Attributes added
// through With are rendered once and reused for every record.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool

	label        lineLabel
	groupPrefix  string
	preformatted []byte
}

type lineLabel struct {
	component string
	jobID     string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.preformatted = slices.Clone(h.preformatted)
	for _, attr := range attrs {
		next.preformatted = appendAttr(next.preformatted, attr, h.groupPrefix, &next.label)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groupPrefix = h.groupPrefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	label := h.label
	var attrs []byte
	record.Attrs(func(attr slog.Attr) bool {
		attrs = appendAttr(attrs, attr, h.groupPrefix, &label)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 96+len(h.preformatted)+len(attrs))
	buf = ts.Local().AppendFormat(buf, consoleTimeLayout)
	buf = append(buf, ' ')
	buf = append(buf, levelTag(record.Level)...)
	buf = label.append(buf)
	buf = append(buf, ' ')
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, '-')
	}
	buf = append(buf, h.preformatted...)
	buf = append(buf, attrs...)
	if h.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		buf = append(buf, " @"...)
		buf = append(buf, filepath.Base(frame.File)...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(frame.Line), 10)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (l lineLabel) append(buf []byte) []byte {
	if l.component == "" && l.jobID == "" {
		return buf
	}
	buf = append(buf, " ["...)
	buf = append(buf, l.component...)
	if l.component != "" && l.jobID != "" {
		buf = append(buf, ' ')
	}
	buf = append(buf, l.jobID...)
	return append(buf, ']')
}

// appendAttr renders attr as " key=value". Top-level component and job id
// attributes update label instead; the innermost component wins.
func appendAttr(buf []byte, attr slog.Attr, prefix string, label *lineLabel) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := prefix
		if attr.Key != "" {
			nested = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			buf = appendAttr(buf, member, nested, label)
		}
		return buf
	}
	if prefix == "" {
		switch attr.Key {
		case FieldComponent:
			label.component = valueText(attr.Value)
			return buf
		case FieldJobID:
			label.jobID = shortJobID(valueText(attr.Value))
			return buf
		}
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	return appendValue(buf, attr.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		return appendText(buf, valueText(v))
	}
}

func valueText(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// appendText quotes values that would not survive a split on spaces and '='.
func appendText(buf []byte, s string) []byte {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

// shortJobID keeps console lines narrow; the JSON handler retains the full ID.
func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERR"
	case level >= slog.LevelWarn:
		return "WRN"
	case level >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}
