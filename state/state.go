// Package state implements the process-singleton global state of §4.H:
// format data, an optional prompt command, the job registry, exit
// status, and an opaque editor handle, all behind one coarse mutex.
package state

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/job"
)

// TemperatureUnit selects how temperature-typed values render.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

// FormatData controls display rendering (§4.H): locale grouping,
// temperature unit, and precision for floats/percentages/temperatures.
type FormatData struct {
	Locale             string          `yaml:"locale"`
	TemperatureUnit    TemperatureUnit `yaml:"-"`
	FloatPrecision     int             `yaml:"float_precision"`
	PercentPrecision   int             `yaml:"percent_precision"`
	TemperaturePrecision int           `yaml:"temperature_precision"`
}

// DefaultFormatData matches the teacher's convention of sane, explicit
// zero-config defaults rather than leaving a FormatData half-built.
func DefaultFormatData() FormatData {
	return FormatData{
		Locale:               "en_US",
		TemperatureUnit:      Celsius,
		FloatPrecision:       6,
		PercentPrecision:     2,
		TemperaturePrecision: 1,
	}
}

// configFile is the on-disk YAML shape FormatData loads from; kept
// separate from FormatData itself so the TemperatureUnit enum can use
// a plain string in the file without leaking that encoding into the
// in-memory type.
type configFile struct {
	Locale               string `yaml:"locale"`
	TemperatureUnit      string `yaml:"temperature_unit"`
	FloatPrecision       *int   `yaml:"float_precision"`
	PercentPrecision     *int   `yaml:"percent_precision"`
	TemperaturePrecision *int   `yaml:"temperature_precision"`
}

// LoadFormatData reads an optional YAML config file and overlays it
// onto DefaultFormatData; a missing file is not an error (§10
// Configuration: "optional YAML file").
func LoadFormatData(path string) (FormatData, error) {
	fd := DefaultFormatData()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fd, nil
		}
		return fd, fmt.Errorf("state: reading format config %q: %w", path, err)
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fd, fmt.Errorf("state: parsing format config %q: %w", path, err)
	}
	if cf.Locale != "" {
		fd.Locale = cf.Locale
	}
	switch cf.TemperatureUnit {
	case "fahrenheit":
		fd.TemperatureUnit = Fahrenheit
	case "celsius", "":
	default:
		return fd, fmt.Errorf("state: unknown temperature_unit %q", cf.TemperatureUnit)
	}
	if cf.FloatPrecision != nil {
		fd.FloatPrecision = *cf.FloatPrecision
	}
	if cf.PercentPrecision != nil {
		fd.PercentPrecision = *cf.PercentPrecision
	}
	if cf.TemperaturePrecision != nil {
		fd.TemperaturePrecision = *cf.TemperaturePrecision
	}
	return fd, nil
}

// EditorHandle is opaque to the core (§4.H); state only stores and
// returns it.
type EditorHandle interface{}

// GlobalState is the process singleton of §4.H. All fields are behind
// a single coarse mutex; no invariant crosses the boundary of a single
// lock acquisition.
type GlobalState struct {
	mu sync.Mutex

	format FormatData
	prompt command.Command // nil if unset

	Jobs *job.Registry

	exitStatus *int
	editor     EditorHandle

	log *zap.Logger
}

// New constructs a GlobalState with the given format data and logger.
// A nil logger falls back to zap.NewNop() so callers never nil-check.
func New(fd FormatData, log *zap.Logger) *GlobalState {
	if log == nil {
		log = zap.NewNop()
	}
	return &GlobalState{
		format: fd,
		Jobs:   job.NewRegistry(),
		log:    log,
	}
}

// FormatData returns a copy of the current format settings.
func (g *GlobalState) FormatData() FormatData {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.format
}

// SetFormatData replaces the format settings.
func (g *GlobalState) SetFormatData(fd FormatData) {
	g.mu.Lock()
	g.format = fd
	g.mu.Unlock()
	g.log.Debug("format data updated", zap.String("locale", fd.Locale))
}

// PromptCommand returns the command evaluated at each REPL iteration to
// yield the prompt string, or nil if unset.
func (g *GlobalState) PromptCommand() command.Command {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}

// SetPromptCommand installs cmd as the prompt command (nil clears it).
func (g *GlobalState) SetPromptCommand(cmd command.Command) {
	g.mu.Lock()
	g.prompt = cmd
	g.mu.Unlock()
}

// ExitStatus returns the pending exit status and whether one is set;
// when set, the REPL stops (§4.H).
func (g *GlobalState) ExitStatus() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exitStatus == nil {
		return 0, false
	}
	return *g.exitStatus, true
}

// RequestExit sets the exit status, signaling the REPL to stop.
func (g *GlobalState) RequestExit(status int) {
	g.mu.Lock()
	g.exitStatus = &status
	g.mu.Unlock()
	g.log.Info("exit requested", zap.Int("status", status))
}

// Editor returns the opaque editor handle, or nil if unset.
func (g *GlobalState) Editor() EditorHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editor
}

// SetEditor installs the editor handle.
func (g *GlobalState) SetEditor(e EditorHandle) {
	g.mu.Lock()
	g.editor = e
	g.mu.Unlock()
}

// Logger exposes the injected zap logger for components (such as external)
// that want to log without themselves depending on GlobalState.
func (g *GlobalState) Logger() *zap.Logger {
	return g.log
}
