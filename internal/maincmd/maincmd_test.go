package maincmd_test

import (
	"bytes"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcit-lang/calcit-go/internal/maincmd"
)

func TestValidateFallsBackToRunForUnrecognizedFirstArg(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"compact.cirru", "--once"})
	c.SetFlags(map[string]bool{"once": true})
	require.NoError(t, c.Validate())
}

func TestValidateDispatchesKnownSubcommand(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"parsesnapshot", "compact.cirru"})
	c.SetFlags(map[string]bool{})
	require.NoError(t, c.Validate())
}

func TestValidateAcceptsNoArgsAsRun(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs(nil)
	c.SetFlags(map[string]bool{})
	require.NoError(t, c.Validate())
}

func TestMainPrintsVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "1.2.3", BuildDate: "2026-01-01"}
	code := c.Main([]string{"calcit", "-v"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1.2.3")
}

func TestMainPrintsHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"calcit", "--help"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "usage: calcit")
}

func TestMainRunsRegisteredSubcommand(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{"calcit", "parsesnapshot", "testdata", "does-not-exist.cirru"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Failure, code)
	assert.NotEmpty(t, errOut.String())
}
