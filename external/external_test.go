package external_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/external"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, dirs ...string) *external.PathResolver {
	t.Helper()
	r, err := external.NewPathResolver(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	r.SetDirs(dirs)
	return r
}

func TestPathResolverFindsExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o755))

	r := newResolver(t, dir)
	got, ok := r.Resolve("greet")
	require.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = r.Resolve("does-not-exist")
	assert.False(t, ok)
}

func TestPathResolverSkipsNonExecutableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))

	r := newResolver(t, dir)
	_, ok := r.Resolve("readme.txt")
	assert.False(t, ok)
}

func TestPathResolverInvalidatesOnNewFile(t *testing.T) {
	dir := t.TempDir()
	r := newResolver(t, dir)

	_, ok := r.Resolve("late")
	assert.False(t, ok)

	path := filepath.Join(dir, "late")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	require.Eventually(t, func() bool {
		_, ok := r.Resolve("late")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestResolverResolveWrapsPathResolverMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	res := external.Resolver{Paths: newResolver(t, dir)}
	cmd, ok := res.Resolve("greet")
	require.True(t, ok)
	assert.Equal(t, "greet", cmd.Name())
}

func TestResolverSuggestFuzzyMatchesClosestName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"status", "stash"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755))
	}

	res := external.Resolver{Paths: newResolver(t, dir)}
	suggestion, ok := res.Suggest("statu")
	require.True(t, ok)
	assert.Equal(t, "status", suggestion)
}

func TestCommandRunWiresStdinToStdoutThroughPipe(t *testing.T) {
	path, err := lookPathAny("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	cmd := &external.Command{ProgramName: "cat", Path: path}

	inSender, inReceiver := pipe.NewValueChannel()
	outSender, outReceiver := pipe.NewValueChannel()

	go func() {
		_ = inSender.Send(value.NewBinary([]byte("hello pipeline")))
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- cmd.Run(&command.Context{
			Input:  inReceiver,
			Output: outSender,
			Scope:  scope.New(),
		}, nil)
	}()

	out, ok := outReceiver.Recv()
	require.True(t, ok)
	stream, ok := out.(*pipe.BinaryInputStream)
	require.True(t, ok)

	materialized, err := stream.Materialize()
	require.NoError(t, err)
	bv, ok := materialized.(value.BinaryValue)
	require.True(t, ok)
	assert.Equal(t, "hello pipeline", string(bv.Bytes()))

	require.NoError(t, <-errCh)
}

func TestCommandRunTerminalModeWhenBothSentinels(t *testing.T) {
	path, err := lookPathAny("true")
	if err != nil {
		t.Skip("true not available")
	}
	cmd := &external.Command{ProgramName: "true", Path: path}

	err = cmd.Run(&command.Context{
		Input:  pipe.EmptyChannel(),
		Output: pipe.BlackHole(),
		Scope:  scope.New(),
	}, nil)
	assert.NoError(t, err)
}

func TestCommandRunSurfacesNonZeroExit(t *testing.T) {
	path, err := lookPathAny("false")
	if err != nil {
		t.Skip("false not available")
	}
	cmd := &external.Command{ProgramName: "false", Path: path}

	inSender, inReceiver := pipe.NewValueChannel()
	inSender.Close()
	outSender, outReceiver := pipe.NewValueChannel()
	go func() {
		for {
			if _, ok := outReceiver.Recv(); !ok {
				return
			}
		}
	}()

	err = cmd.Run(&command.Context{
		Input:  inReceiver,
		Output: outSender,
		Scope:  scope.New(),
	}, nil)
	assert.Error(t, err)
}

func lookPathAny(name string) (string, error) {
	for _, dir := range []string{"/bin", "/usr/bin"} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}
