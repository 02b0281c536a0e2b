// Testing Strategy Design Decision:
//
// The cmd/ package contains CLI integration tests that exercise the full stack:
// command parsing -> extension -> tree service -> store layer -> SQLite.
//
// The tree, store, outline, purge and recount packages carry their own unit
// tests; these tests prove the commands wire them together correctly, that
// flags and environment variables resolve the way the guide describes, and
// that JSON output stays machine-readable.

package cmd

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary compiles the ndr binary once for all tests.
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "ndr-test-bin-*")
		if err != nil {
			buildErr = err
			return
		}

		binaryName := "ndr"
		if os.PathSeparator == '\\' {
			binaryName = "ndr.exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		// Find project root (parent of cmd/)
		wd := mustGetwd()
		projectRoot := filepath.Dir(wd)

		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		cmd.Dir = projectRoot
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildError{err: err, output: string(out)}
			return
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binary: %v", buildErr)
	}
	return binaryPath
}

type buildError struct {
	err    error
	output string
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}

// testActor is the identity every test environment acts as by default.
const testActor = "tester"

// testEnv holds test environment state.
type testEnv struct {
	t      *testing.T
	dir    string
	home   string
	binary string
	actor  string // exported as NDR_ACTOR; empty leaves it unset
}

// newTestEnv creates a temporary directory with an initialised ndr store.
// HOME points at a private directory so the global config of the machine
// running the tests is never read or written.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := newBareEnv(t)
	env.run("init")
	return env
}

// newBareEnv is newTestEnv without the init.
func newBareEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:      t,
		dir:    t.TempDir(),
		home:   t.TempDir(),
		binary: buildBinary(t),
		actor:  testActor,
	}
}

// environ builds the child environment: the parent's minus any NDR_
// variables, with HOME isolated and the test actor set.
func (e *testEnv) environ(extra ...string) []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "NDR_") || strings.HasPrefix(kv, "HOME=") || strings.HasPrefix(kv, "USERPROFILE=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "HOME="+e.home, "USERPROFILE="+e.home)
	if e.actor != "" {
		env = append(env, "NDR_ACTOR="+e.actor)
	}
	return append(env, extra...)
}

func (e *testEnv) command(args ...string) *exec.Cmd {
	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	cmd.Env = e.environ()
	return cmd
}

// run executes ndr with the given args and returns combined output.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		e.t.Fatalf("ndr %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runErr executes ndr and returns combined output and any error.
func (e *testEnv) runErr(args ...string) (string, error) {
	e.t.Helper()
	out, err := e.command(args...).CombinedOutput()
	return string(out), err
}

// runStdin executes ndr with stdin input.
func (e *testEnv) runStdin(input string, args ...string) string {
	e.t.Helper()
	cmd := e.command(args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("ndr %v failed: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

// runJSON executes ndr with -o json and decodes stdout into v. Stderr is
// kept out of the decoded stream. v is zeroed first so fields the response
// omits do not keep values from an earlier call.
func (e *testEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	cmd := e.command(append(args, "-o", "json")...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	require.NoError(e.t, err, "ndr %v failed\nstdout: %s\nstderr: %s", args, out, stderr.String())
	reflect.ValueOf(v).Elem().SetZero()
	require.NoError(e.t, json.Unmarshal(out, v), "decode %q", out)
}

// contains checks if output contains expected string.
func (e *testEnv) contains(output, expected string) {
	e.t.Helper()
	assert.Contains(e.t, output, expected)
}

// equals checks if output equals expected string (trimmed).
func (e *testEnv) equals(output, expected string) {
	e.t.Helper()
	assert.Equal(e.t, strings.TrimSpace(expected), strings.TrimSpace(output))
}

// path returns a path inside the test directory.
func (e *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{e.dir}, elem...)...)
}
