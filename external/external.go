// Package external implements §4.J: resolving a name against cmd_path,
// and running the resulting executable as a pipeline stage, wiring its
// stdio per whether the stage sits inside a real pipe or stands alone.
//
// Grounded on the original implementation's src/lib/control/cmd.rs
// (terminal-mode decision, switch-style argv construction, stdin/
// stdout/stderr wiring) and the teacher's runtime/executor/
// shell_worker.go (dedicated goroutine draining a child's stream,
// buffered stdio plumbing idiom).
package external

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// SwitchStyle mirrors invoke.SwitchStyle without importing package
// invoke (which itself depends on external through ExternalResolver,
// so the dependency must run one way only).
type SwitchStyle int

const (
	SwitchNone SwitchStyle = iota
	SwitchSingle
	SwitchDouble
)

// ArgSpec is one already-evaluated external-command argument, carrying
// enough of §4.F's ArgumentDefinition to reconstruct argv (§4.J).
type ArgSpec struct {
	Name   string // empty for unnamed arguments
	Value  value.Value
	Switch SwitchStyle
}

// PathResolver caches, per cmd_path directory, the set of executables
// it contains, invalidating an entry when fsnotify reports a
// write/create/remove under it rather than re-reading the directory on
// every dispatch (§11 domain stack: fsnotify).
type PathResolver struct {
	mu      sync.Mutex
	dirs    []string
	cache   map[string]map[string]string // dir -> basename -> full path
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewPathResolver starts an fsnotify watcher backing the cache.
func NewPathResolver(log *zap.Logger) (*PathResolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "creating cmd_path watcher")
	}
	r := &PathResolver{cache: make(map[string]map[string]string), watcher: w, log: log}
	go r.watchLoop()
	return r, nil
}

func (r *PathResolver) watchLoop() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(ev.Name)
			r.mu.Lock()
			delete(r.cache, dir)
			r.mu.Unlock()
			r.log.Debug("cmd_path cache invalidated", zap.String("dir", dir), zap.String("event", ev.Op.String()))
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("cmd_path watcher error", zap.Error(err))
		}
	}
}

// SetDirs installs the cmd_path directory list (§4.J "cmd_path
// variable — a List of directory paths"), watching any not already
// watched.
func (r *PathResolver) SetDirs(dirs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append([]string(nil), dirs...)
	for _, d := range dirs {
		_ = r.watcher.Add(d)
	}
}

// Close stops the underlying watcher.
func (r *PathResolver) Close() error { return r.watcher.Close() }

func (r *PathResolver) listDirLocked(dir string) map[string]string {
	if entries, ok := r.cache[dir]; ok {
		return entries
	}
	entries := map[string]string{}
	files, err := os.ReadDir(dir)
	if err == nil {
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.Mode()&0o111 != 0 {
				entries[f.Name()] = filepath.Join(dir, f.Name())
			}
		}
	}
	r.cache[dir] = entries
	return entries
}

// Resolve returns the first executable named name found across the
// cmd_path directories, in order (§4.J).
func (r *PathResolver) Resolve(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dir := range r.dirs {
		entries := r.listDirLocked(dir)
		if path, ok := entries[name]; ok {
			return path, true
		}
	}
	return "", false
}

// Candidates returns every known executable basename across cmd_path,
// for fuzzy suggestion.
func (r *PathResolver) Candidates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, dir := range r.dirs {
		for name := range r.listDirLocked(dir) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Resolver implements invoke.ExternalResolver structurally; this
// package does not import invoke.
type Resolver struct {
	Paths *PathResolver
	Log   *zap.Logger
}

// Resolve looks up name against cmd_path and wraps the match as a
// Command.
func (r Resolver) Resolve(name string) (command.Command, bool) {
	path, ok := r.Paths.Resolve(name)
	if !ok {
		return nil, false
	}
	return &Command{ProgramName: name, Path: path, log: r.Log}, true
}

// Suggest finds the closest cmd_path executable name to an unresolved
// identifier via fuzzy matching (§11 domain stack: lithammer/
// fuzzysearch).
func (r Resolver) Suggest(name string) (string, bool) {
	candidates := r.Paths.Candidates()
	matches := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(matches) == 0 {
		return "", false
	}
	sort.Sort(matches)
	return matches[0].Target, true
}

// Command is one resolved external program, ready to run as a
// pipeline stage (§4.J). Bind returns a BoundCommand like any other
// Command, though external programs never actually consult This.
type Command struct {
	ProgramName string
	Path        string
	Argv        []ArgSpec

	log *zap.Logger
}

func (c *Command) name() string {
	if c.ProgramName != "" {
		return c.ProgramName
	}
	return c.Path
}

// Name satisfies command.Command.
func (c *Command) Name() string { return c.name() }

// Invoke satisfies command.Command for the generic dispatch path;
// invoke's DispatchStage instead calls Run directly once it has built
// Argv with switch-style information, since BindArguments has no
// concept of external-program argv assembly. Invoke is only reached if
// an external Command is somehow called through the generic path with
// no Argv set, which runs it with none.
func (c *Command) Invoke(ctx *command.Context) error {
	return c.Run(ctx, nil)
}

// Run executes the external program, wiring stdio per §4.J's
// terminal-mode decision and draining stderr line-by-line to printer.
// Grounded directly on original_source's cmd_internal: terminal mode
// applies when BOTH ends of the stage are sentinels (EmptyChannel/
// BlackHole) i.e. the command is not actually embedded in a longer
// pipe — not when they carry real pipeline connections, despite
// spec.md's own phrasing; original_source's `use_tty = !input.is_pipeline()
// && !output.is_pipeline()` is unambiguous and is followed here.
func (c *Command) Run(ctx *command.Context, printer func(string)) error {
	argv := buildArgv(c.Argv)
	cmd := exec.Command(c.Path, argv...)

	terminalMode := ctx.Input.IsSentinel() && ctx.Output.IsSentinel()
	if terminalMode {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return errs.Wrap(errs.IO, err, "running %q", c.name())
		}
		return nil
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errs.Wrap(errs.IO, err, "wiring stdin for %q", c.name())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.Wrap(errs.IO, err, "wiring stdout for %q", c.name())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.Wrap(errs.IO, err, "wiring stderr for %q", c.name())
	}

	if err := cmd.Start(); err != nil {
		return errs.Wrap(errs.IO, err, "starting %q", c.name())
	}

	spawn := func(label string, fn func()) { ctx.Spawn(label, fn) }

	spawn("cmd:stdin", func() {
		defer stdin.Close()
		in, ok := ctx.Input.Recv()
		if !ok || in == nil {
			return
		}
		switch v := in.(type) {
		case value.BinaryValue:
			_, _ = stdin.Write(v.Bytes())
		case *pipe.BinaryInputStream:
			_, _ = io.Copy(stdin, v)
		default:
		}
	})

	// cmd.Wait must not run until every read from cmd's own StdoutPipe
	// has completed (os/exec's own documented constraint), but the
	// downstream stage may drain the BinaryInputStream we hand it long
	// after Run returns. Decouple the two with an io.Pipe: a dedicated
	// goroutine drains the child's real stdout into it immediately, and
	// Wait only fires once that drain finishes; the downstream consumer
	// reads from the io.Pipe side on its own schedule, with the pipe's
	// own unbuffered backpressure standing in for the channel depth a
	// real stage-to-stage connection would provide.
	stdoutReader, stdoutWriter := io.Pipe()
	stdoutDone := make(chan struct{})
	go func() {
		_, _ = io.Copy(stdoutWriter, stdout)
		_ = stdoutWriter.Close()
		close(stdoutDone)
	}()

	if err := ctx.Output.Send(pipe.NewBinaryInputStream(stdoutReader)); err != nil {
		<-stdoutDone
		_ = cmd.Wait()
		return errs.Wrap(errs.IO, err, "sending binary stream for %q", c.name())
	}

	spawn("cmd:stderr", func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && printer != nil {
				printer(line)
			}
		}
	})

	<-stdoutDone
	if err := cmd.Wait(); err != nil {
		return errs.Wrap(errs.IO, err, "%q exited with an error", c.name())
	}
	return nil
}

func (c *Command) Bind(receiver value.Value) command.Command {
	return command.BoundCommand{Inner: c, This: receiver}
}

func (c *Command) CanBlock(args []value.Value, sc *scope.Scope) bool { return true }

func (c *Command) Help() command.HelpMetadata {
	return command.HelpMetadata{Short: "external command " + c.name()}
}

func (c *Command) CompletionData() []command.Parameter { return nil }

// buildArgv implements §4.J's switch-style argv construction: a
// single-char switch name becomes -x, multi-char becomes --xxx, a glob
// expands via directory traversal, and plain unnamed values are
// stringified and split on newlines (original_source's format_value).
func buildArgv(specs []ArgSpec) []string {
	var argv []string
	for _, a := range specs {
		if a.Name == "" {
			argv = append(argv, expandArg(a.Value)...)
			continue
		}

		switch a.Switch {
		case SwitchSingle:
			argv = append(argv, "-"+a.Name)
		case SwitchDouble:
			argv = append(argv, "--"+a.Name)
		default:
			if len(a.Name) == 1 {
				argv = append(argv, "-"+a.Name)
			} else {
				argv = append(argv, "--"+a.Name)
			}
		}
	}
	return argv
}

func expandArg(v value.Value) []string {
	s := v.String()
	if strings.ContainsAny(s, "*?[") {
		if matches, err := filepath.Glob(s); err == nil && len(matches) > 0 {
			return matches
		}
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return []string{s}
	}
	return out
}
