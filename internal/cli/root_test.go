package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the command tree against a state file in dir.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("DEMO_PASSWORD", "password")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--state", filepath.Join(dir, "state.db")}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestRootCommand_VersionAndHelp(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit:")

	out, err = run(t, t.TempDir(), "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "login", "logout", "whoami", "switch-role", "roles", "chat"} {
		assert.Contains(t, out, sub)
	}
}

func TestLoginWhoamiSwitchLogout(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "whoami")
	require.ErrorIs(t, err, errNotLoggedIn)

	out, err := run(t, dir, "", "login", "--email", "john@example.com", "--password", "password")
	require.NoError(t, err)
	assert.Contains(t, out, "John Citizen")

	// A second invocation reads the persisted session.
	out, err = run(t, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "john@example.com")

	out, err = run(t, dir, "", "switch-role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Admin/Monitor")

	out, err = run(t, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Mike Admin")

	_, err = run(t, dir, "", "logout")
	require.NoError(t, err)
	_, err = run(t, dir, "", "logout")
	require.NoError(t, err)

	_, err = run(t, dir, "", "whoami")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestLogin_Rejections(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"wrong password", []string{"login", "--email", "john@example.com", "--password", "nope"}},
		{"unknown email", []string{"login", "--email", "nobody@example.com", "--password", "password"}},
		{"unknown role", []string{"login", "--as", "mayor"}},
		{"no flags", []string{"login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := run(t, dir, "", tt.args...)
			require.Error(t, err)

			_, err = run(t, dir, "", "whoami")
			require.ErrorIs(t, err, errNotLoggedIn)
		})
	}
}

func TestSwitchRole_UnknownKeepsSession(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "login", "--as", "worker")
	require.NoError(t, err)

	_, err = run(t, dir, "", "switch-role", "mayor")
	require.Error(t, err)

	out, err := run(t, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Sarah Worker")
}

func TestRolesCommand_Formats(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "login", "--as", "worker")
	require.NoError(t, err)

	out, err := run(t, dir, "", "roles")
	require.NoError(t, err)
	assert.Contains(t, out, "Citizen")
	assert.Contains(t, out, "(current)")

	out, err = run(t, dir, "", "roles", "-o", "json")
	require.NoError(t, err)
	var rows []roleRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "citizen", rows[0].Role.String())
	assert.False(t, rows[0].Current)
	assert.True(t, rows[1].Current)

	out, err = run(t, dir, "", "roles", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "role: admin")
	assert.Contains(t, out, "current: true")

	_, err = run(t, dir, "", "roles", "-o", "xml")
	require.Error(t, err)
}

func TestChat_RepliesInOrder(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "login", "--as", "worker")
	require.NoError(t, err)

	stdin := "Collection schedule\n\n/qr 5\n/qr 99\n/quit\nnever sent\n"
	out, err := run(t, dir, stdin, "chat", "--min-delay", "1ms", "--max-delay", "2ms")
	require.NoError(t, err)

	assert.Contains(t, out, "Worker Support")
	assert.Contains(t, out, "Hi! I'm your Smart Waste Management assistant.")
	assert.Contains(t, out, "Collection schedule | Waste segregation guide | Green points info")

	schedule := strings.Index(out, "Waste collection happens every Tuesday")
	route := strings.Index(out, "Your route is optimized daily")
	require.NotEqual(t, -1, schedule)
	require.NotEqual(t, -1, route)
	assert.Less(t, schedule, route)
	assert.Contains(t, out, "pick a quick reply between 1 and 7")
}

func TestChat_ZeroDelayRepliesAtOnce(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "login", "--as", "citizen")
	require.NoError(t, err)

	start := time.Now()
	out, err := run(t, dir, "my rating\nredeem\n/quit\n", "chat", "--min-delay", "0s", "--max-delay", "0s")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "two replies at the default 1s pacing would take at least 2s")
	assert.Contains(t, out, "Your eco rating is based on")
	assert.Contains(t, out, "Visit the Green Shop")
}

func TestChat_RequiresLogin(t *testing.T) {
	_, err := run(t, t.TempDir(), "/quit\n", "chat")
	require.ErrorIs(t, err, errNotLoggedIn)
}
