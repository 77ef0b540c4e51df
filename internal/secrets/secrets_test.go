package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Built at runtime so the literal token never appears in the source.
var githubToken = "ghp_" + "R7xK2mQ9vL4pW8nZ3tY6bC1dF5gH0jS2aE7u"

func TestLoadAllowlist(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path", func(t *testing.T) {
		al, err := LoadAllowlist("")
		require.NoError(t, err)
		assert.Empty(t, al.Regexes)
	})

	t.Run("missing file", func(t *testing.T) {
		al, err := LoadAllowlist(filepath.Join(dir, "missing.toml"))
		require.NoError(t, err)
		assert.Empty(t, al.Paths)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "allow.toml")
		content := "[allowlist]\nregexes = ['''DEMO_[A-Z]+''']\npaths = ['''fixtures/''']\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		al, err := LoadAllowlist(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"DEMO_[A-Z]+"}, al.Regexes)
		assert.Equal(t, []string{"fixtures/"}, al.Paths)
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[allowlist\nregexes = "), 0o600))

		_, err := LoadAllowlist(path)
		assert.ErrorIs(t, err, ErrInvalidTOML)
	})

	t.Run("invalid regex", func(t *testing.T) {
		path := filepath.Join(dir, "regex.toml")
		require.NoError(t, os.WriteFile(path, []byte("[allowlist]\nregexes = ['''([unclosed''']\n"), 0o600))

		_, err := LoadAllowlist(path)
		assert.ErrorIs(t, err, ErrInvalidRegex)
	})
}

func TestRedactor_CleanContent(t *testing.T) {
	r, err := NewRedactor(nil)
	require.NoError(t, err)

	content := `{"name": "python web api", "description": "FastAPI starter"}`
	res := r.Redact("web/api.json", content)
	assert.Equal(t, content, res.Content)
	assert.Zero(t, res.Count())
	assert.True(t, r.Enabled())
}

func TestRedactor_MasksToken(t *testing.T) {
	r, err := NewRedactor(nil)
	require.NoError(t, err)

	content := "deploy:\n  token: " + githubToken + "\n"
	res := r.Redact("deploy.yaml", content)

	require.NotZero(t, res.Count())
	assert.NotContains(t, res.Content, githubToken)
	assert.Contains(t, res.Content, "[REDACTED:")
	assert.True(t, strings.HasPrefix(res.Content, "deploy:\n  token: "))
}

func TestRedactor_AllowlistedPathIsSkipped(t *testing.T) {
	r, err := NewRedactor(&Allowlist{Paths: []string{`^fixtures/`}})
	require.NoError(t, err)

	content := "token: " + githubToken
	assert.Equal(t, content, r.Redact("fixtures/demo.yaml", content).Content)
}

func TestNewRedactor_InvalidPattern(t *testing.T) {
	_, err := NewRedactor(&Allowlist{Regexes: []string{"(["}})
	assert.ErrorIs(t, err, ErrInvalidRegex)
}

func TestResult_Mask(t *testing.T) {
	res := Result{Findings: []Finding{{RuleID: "github-pat", Secret: githubToken}}}
	assert.Equal(t, "[REDACTED:github-pat]", res.Mask(githubToken))
	assert.Equal(t, "clean", res.Mask("clean"))
	assert.Equal(t, "x", Result{}.Mask("x"))
}

func TestReplaceSecrets_LongestFirst(t *testing.T) {
	out := replaceSecrets("key=abcdef short=abc", []Finding{
		{RuleID: "short", Secret: "abc"},
		{RuleID: "long", Secret: "abcdef"},
	})
	assert.Equal(t, "key=[REDACTED:long] short=[REDACTED:short]", out)
}

func TestNoopRedactor(t *testing.T) {
	var r Redactor = NoopRedactor{}
	assert.False(t, r.Enabled())
	assert.Equal(t, "token: "+githubToken, r.Redact("", "token: "+githubToken).Content)
}
