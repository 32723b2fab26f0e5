package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/hirelane/adapter/cli"
	"github.com/hirelane/hirelane/internal/gateway"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/kvstore"
)

func resetFlags() {
	loginToken = ""
}

func setupApp(t *testing.T) *cli.App {
	t.Helper()
	app := &cli.App{Tokens: gateway.NewKVTokenStore(kvstore.NewMemoryStore())}
	cli.SetApp(app)
	t.Cleanup(func() { cli.SetApp(nil) })
	return app
}

func jwtToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-42",
		"email": "ada@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestLoginCmd_FlagToken(t *testing.T) {
	resetFlags()
	app := setupApp(t)
	loginToken = "  abc123  "

	var output strings.Builder
	loginCmd.SetContext(context.Background())
	loginCmd.SetOut(&output)

	require.NoError(t, loginCmd.RunE(loginCmd, nil))
	assert.Contains(t, output.String(), "Token stored.")

	tok, err := app.Tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)
}

func TestLoginCmd_StdinToken(t *testing.T) {
	resetFlags()
	app := setupApp(t)

	var output strings.Builder
	loginCmd.SetContext(context.Background())
	loginCmd.SetOut(&output)
	loginCmd.SetIn(strings.NewReader("piped-token\n"))
	defer loginCmd.SetIn(nil)

	require.NoError(t, loginCmd.RunE(loginCmd, nil))

	tok, err := app.Tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "piped-token", tok)
}

func TestLoginCmd_EmptyToken(t *testing.T) {
	resetFlags()
	setupApp(t)

	loginCmd.SetContext(context.Background())
	loginCmd.SetOut(&strings.Builder{})
	loginCmd.SetIn(strings.NewReader(""))
	defer loginCmd.SetIn(nil)

	assert.Error(t, loginCmd.RunE(loginCmd, nil))
}

func TestLoginCmd_NoApp(t *testing.T) {
	resetFlags()
	cli.SetApp(nil)
	loginToken = "x"

	loginCmd.SetContext(context.Background())
	assert.Error(t, loginCmd.RunE(loginCmd, nil))
}

func TestLogoutCmd(t *testing.T) {
	resetFlags()
	app := setupApp(t)
	require.NoError(t, app.Tokens.SetToken(context.Background(), "tok"))

	var output strings.Builder
	logoutCmd.SetContext(context.Background())
	logoutCmd.SetOut(&output)

	require.NoError(t, logoutCmd.RunE(logoutCmd, nil))
	assert.Contains(t, output.String(), "Logged out.")

	tok, err := app.Tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestStatusCmd(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		expect []string
	}{
		{name: "no token", expect: []string{"Not logged in."}},
		{name: "opaque token", token: "opaque", expect: []string{"opaque token"}},
		{name: "valid jwt", token: jwtToken(t, time.Now().Add(time.Hour)), expect: []string{"Logged in.", "user-42", "ada@example.com", "expires:"}},
		{name: "expired jwt", token: jwtToken(t, time.Now().Add(-time.Hour)), expect: []string{"Token expired"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t)
			if tt.token != "" {
				require.NoError(t, app.Tokens.SetToken(context.Background(), tt.token))
			}

			var output strings.Builder
			statusCmd.SetContext(context.Background())
			statusCmd.SetOut(&output)

			require.NoError(t, statusCmd.RunE(statusCmd, nil))
			for _, want := range tt.expect {
				assert.Contains(t, output.String(), want)
			}
		})
	}
}
