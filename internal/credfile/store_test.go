package credfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestWriteProfileCreatesFileAndParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".aws", "credentials")
	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.WriteProfile("default", "AKIANEW", "s3cr3t"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	section := cfg.Section("default")
	assert.Equal(t, "AKIANEW", section.Key("aws_access_key_id").String())
	assert.Equal(t, "s3cr3t", section.Key("aws_secret_access_key").String())
}

func TestWriteProfilePreservesOtherSectionsAndKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	existing := `[default]
aws_access_key_id = AKIAOLD
aws_secret_access_key = oldsecret
aws_session_token = tok123

[staging]
aws_access_key_id = AKIASTAGING
aws_secret_access_key = stagingsecret
region = eu-west-1
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.WriteProfile("default", "AKIANEW", "newsecret"))

	cfg, err := ini.Load(path)
	require.NoError(t, err)

	def := cfg.Section("default")
	assert.Equal(t, "AKIANEW", def.Key("aws_access_key_id").String())
	assert.Equal(t, "newsecret", def.Key("aws_secret_access_key").String())
	assert.Equal(t, "tok123", def.Key("aws_session_token").String(),
		"unrelated keys in the target section must survive")

	staging := cfg.Section("staging")
	assert.Equal(t, "AKIASTAGING", staging.Key("aws_access_key_id").String())
	assert.Equal(t, "stagingsecret", staging.Key("aws_secret_access_key").String())
	assert.Equal(t, "eu-west-1", staging.Key("region").String())
}

func TestWriteProfileOverwritesExistingProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.WriteProfile("deploy", "AKIA1", "first"))
	require.NoError(t, store.WriteProfile("deploy", "AKIA2", "second"))

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AKIA2", cfg.Section("deploy").Key("aws_access_key_id").String())
	assert.Equal(t, "second", cfg.Section("deploy").Key("aws_secret_access_key").String())
}

func TestDefaultPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/custom/creds")
		assert.Equal(t, "/custom/creds", DefaultPath())
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "")
		assert.Equal(t, filepath.Join("~", ".aws", "credentials"), DefaultPath())
	})
}

func TestNewStoreExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("~/.aws/credentials")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".aws", "credentials"), store.Path())
}
