package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Component identifiers for color-coded logging
type Component string

const (
	ComponentGateway   Component = "GATEWAY"
	ComponentHTTP      Component = "HTTP"
	ComponentStore     Component = "STORE"
	ComponentFirestore Component = "FIRESTORE"
	ComponentS3        Component = "S3"
	ComponentMongo     Component = "MONGO"
	ComponentSeed      Component = "SEED"
)

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorGreen   = "\033[32m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorYellow  = "\033[33m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
	colorOrange  = "\033[38;5;208m"
)

var componentColors = map[Component]string{
	ComponentGateway:   colorBlue,
	ComponentHTTP:      colorWhite,
	ComponentStore:     colorYellow,
	ComponentFirestore: colorOrange,
	ComponentS3:        colorCyan,
	ComponentMongo:     colorGreen,
	ComponentSeed:      colorMagenta,
}

// level is shared by every logger so a single --log-level flag applies process-wide.
var level = new(slog.LevelVar)

// SetLevel sets the minimum level emitted by all loggers.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel converts a config string (debug, info, warn, error) into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ColorHandler is a slog handler that prefixes every line with its component tag
type ColorHandler struct {
	out       io.Writer
	mu        *sync.Mutex
	component Component
	useColors bool
	attrs     []slog.Attr
	group     string
}

// NewColorHandler creates a new color-coded handler
func NewColorHandler(out io.Writer, component Component, useColors bool) *ColorHandler {
	return &ColorHandler{
		out:       out,
		mu:        &sync.Mutex{},
		component: component,
		useColors: useColors,
	}
}

// Enabled reports whether the shared level admits l
func (h *ColorHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= level.Level()
}

// Handle writes: emoji [COMPONENT] message key=value...
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	color, reset := componentColors[h.component], colorReset
	if !h.useColors {
		color, reset = "", ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s [%s]%s %s", color, levelEmoji(r.Level), h.component, reset, r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value)
}

// WithAttrs returns a new handler with the given attributes
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup returns a new handler with the given group
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

func levelEmoji(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "\U0001F534" // Red circle
	case l >= slog.LevelWarn:
		return "\U0001F7E1" // Yellow circle
	case l >= slog.LevelInfo:
		return "\U0001F535" // Blue circle
	default:
		return "\U0001F7E3" // Purple circle
	}
}

// Logger wraps slog.Logger with component-specific functionality
type Logger struct {
	*slog.Logger
	component Component
}

// New creates a new component-specific logger
func New(component Component) *Logger {
	useColors := os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
	return NewWithWriter(component, os.Stdout, useColors)
}

// NewWithWriter creates a logger with a custom writer
func NewWithWriter(component Component, w io.Writer, useColors bool) *Logger {
	return &Logger{
		Logger:    slog.New(NewColorHandler(w, component, useColors)),
		component: component,
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriter(ComponentGateway, io.Discard, false)
}

// Component returns the tag this logger prints.
func (l *Logger) Component() Component {
	return l.component
}

// Success logs a success message
func (l *Logger) Success(msg string, args ...any) {
	l.Info("✅ "+msg, args...)
}

// Section logs a section header
func (l *Logger) Section(title string) {
	bar := strings.Repeat("═", 50)
	l.Info("")
	l.Info(bar)
	l.Info(" " + title)
	l.Info(bar)
	l.Info("")
}

// Document logs a message about one stored document
func (l *Logger) Document(collection, id, msg string, args ...any) {
	l.Info("\U0001F4C4 ["+collection+"/"+id+"] "+msg, args...)
}
