package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/keyturn/internal/config"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestResolveOptionsPrecedence(t *testing.T) {
	defaults := config.Defaults{
		Profile:         "deploy",
		CredentialsFile: "/etc/aws/credentials",
		User:            "deploy-bot",
		GracePeriodDays: intPtr(3),
		Force:           boolPtr(true),
	}

	t.Run("config defaults apply when flags are untouched", func(t *testing.T) {
		cmd := NewRotateCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags(nil))

		opts := rotateOptions{profile: "default", credentialsFile: "~/.aws/credentials", gracePeriodDays: 7}
		got := resolveOptions(cmd, opts, defaults)

		assert.Equal(t, "deploy", got.profile)
		assert.Equal(t, "/etc/aws/credentials", got.credentialsFile)
		assert.Equal(t, "deploy-bot", got.user)
		assert.Equal(t, 3, got.gracePeriodDays)
		assert.True(t, got.force)
	})

	t.Run("explicit flags beat config defaults", func(t *testing.T) {
		cmd := NewRotateCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags([]string{
			"--profile", "prod",
			"--grace-period", "0",
			"--force=false",
		}))

		opts := rotateOptions{profile: "prod", credentialsFile: "~/.aws/credentials", gracePeriodDays: 0}
		got := resolveOptions(cmd, opts, defaults)

		assert.Equal(t, "prod", got.profile)
		assert.Equal(t, 0, got.gracePeriodDays)
		assert.False(t, got.force)
		assert.Equal(t, "/etc/aws/credentials", got.credentialsFile, "untouched flags still take config defaults")
	})

	t.Run("built-in defaults survive an empty config", func(t *testing.T) {
		cmd := NewRotateCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags(nil))

		opts := rotateOptions{profile: "default", credentialsFile: "~/.aws/credentials", gracePeriodDays: 7}
		got := resolveOptions(cmd, opts, config.Defaults{})

		assert.Equal(t, "default", got.profile)
		assert.Equal(t, 7, got.gracePeriodDays)
		assert.False(t, got.force)
		assert.Empty(t, got.user)
	})
}

func TestRotateCommandFlags(t *testing.T) {
	cmd := NewRotateCommand(&config.Config{})

	for _, flag := range []string{"profile", "credentials-file", "user", "grace-period", "force"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag --%s", flag)
	}
	for _, flag := range []string{"config", "no-color", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing persistent flag --%s", flag)
	}

	assert.Equal(t, "default", cmd.Flags().Lookup("profile").DefValue)
	assert.Equal(t, "7", cmd.Flags().Lookup("grace-period").DefValue)
	assert.Equal(t, "false", cmd.Flags().Lookup("force").DefValue)
}
