package catalog

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "scripts": [
    {
      "repo": "PSNewUser",
      "file": "New-DomainUser.ps1",
      "name": "New Domain User",
      "description": "Creates a user",
      "requiresAdmin": true,
      "parameters": [
        {"name": "UserName", "type": "text", "label": "User name", "required": true},
        {"name": "Groups", "type": "textarea"},
        {"name": "Force", "type": "switch"},
        {"name": "Count", "type": "number", "default": 1},
        {"name": "Mode", "type": "select", "options": ["Fast", "Full"]}
      ]
    },
    {"repo": "PSGatherDNSInfo", "file": "Get-DNSInfo.ps1", "name": "DNS Info"}
  ]
}`

func TestParse_When_CatalogIsValid(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, c.Scripts, 2)

	s := c.Scripts[0]
	assert.Equal(t, "PSNewUser", s.Repo)
	assert.True(t, s.RequiresAdmin)
	require.Len(t, s.Parameters, 5)
	assert.Equal(t, TypeSwitch, s.Parameters[2].Type)
	assert.Equal(t, "1", s.Parameters[3].DefaultString())
	assert.False(t, c.Scripts[1].RequiresAdmin)
}

func TestParse_When_CatalogIsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{scripts:"},
		{name: "missing scripts", data: `{}`},
		{name: "missing repo", data: `{"scripts":[{"file":"a.ps1","name":"A"}]}`},
		{name: "param type not a string", data: `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[{"name":"X","type":3}]}]}`},
		{name: "option object without value", data: `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[{"name":"X","type":"select","options":[{"label":"L"}]}]}]}`},
		{name: "option is a list", data: `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[{"name":"X","type":"select","options":[["a"]]}]}]}`},
		{name: "param name with space", data: `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[{"name":"X Y","type":"text"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_When_ParamTypeMissingOrUnknown(t *testing.T) {
	t.Parallel()

	data := `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[
		{"name":"Plain"},
		{"name":"Slider","type":"slider"},
		{"name":"Email","type":"email"},
		{"name":"Force","type":"switch"}
	]}]}`

	c, err := Parse([]byte(data))
	require.NoError(t, err)
	params := c.Scripts[0].Parameters
	require.Len(t, params, 4)
	assert.Equal(t, TypeText, params[0].Type)
	assert.Equal(t, TypeText, params[1].Type)
	assert.Equal(t, TypeText, params[2].Type)
	assert.Equal(t, TypeSwitch, params[3].Type)
}

func TestParse_When_OptionsMixShapes(t *testing.T) {
	t.Parallel()

	data := `{"scripts":[{"repo":"R","file":"a.ps1","name":"A","parameters":[
		{"name":"Site","type":"select","required":true,"default":"hq","options":[
			{"value":"hq","label":"Headquarters"},
			"branch",
			{"value":2},
			7
		]}
	]}]}`

	c, err := Parse([]byte(data))
	require.NoError(t, err)
	p := c.Scripts[0].Parameters[0]
	assert.Equal(t, []Option{
		{Value: "hq", Label: "Headquarters"},
		{Value: "branch"},
		{Value: "2"},
		{Value: "7"},
	}, p.Options)
	assert.Equal(t, []string{"hq", "branch", "2", "7"}, p.OptionValues())
	assert.Equal(t, "Headquarters", p.Options[0].DisplayLabel())
	assert.Equal(t, "branch", p.Options[1].DisplayLabel())

	d := c.Scripts[0]
	assert.Empty(t, ValidateValues(d, Values{"Site": "hq"}))
	errs := ValidateValues(d, Values{"Site": "Headquarters"})
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "Site must be one of hq, branch, 2, 7")
}

func TestLoadOrEmpty_When_FileMissing(t *testing.T) {
	t.Parallel()

	log := logrus.New()
	log.SetOutput(io.Discard)

	c := LoadOrEmpty(filepath.Join(t.TempDir(), "nope.json"), log)
	require.NotNil(t, c)
	assert.True(t, c.Empty())
}

func TestLoad_When_FileExists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scripts-config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PSNewUser", "PSGatherDNSInfo"}, c.Repos())
}

func TestCatalog_Find(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	byRepo, err := c.Find("psnewuser")
	require.NoError(t, err)
	assert.Equal(t, "New Domain User", byRepo.Name)

	byName, err := c.Find("DNS Info")
	require.NoError(t, err)
	assert.Equal(t, "PSGatherDNSInfo", byName.Repo)

	_, err = c.Find("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateValues(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	d := c.Scripts[0]

	assert.Empty(t, ValidateValues(d, Values{"UserName": "alice", "Count": "3", "Mode": "Fast"}))

	errs := ValidateValues(d, Values{"UserName": "", "Count": "many", "Mode": "Slow"})
	require.Len(t, errs, 3)
	assert.EqualError(t, errs[0], "User name is required")
	assert.EqualError(t, errs[1], "Count must be a number")
	assert.EqualError(t, errs[2], "Mode must be one of Fast, Full")
}

func TestParameterSpec_DisplayLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "User name", ParameterSpec{Name: "UserName", Label: "User name"}.DisplayLabel())
	assert.Equal(t, "ComputerName", ParameterSpec{Name: "computerName"}.DisplayLabel())
}

func TestLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := Layout{Root: root}
	d := ScriptDescriptor{Repo: "X", File: "x.ps1"}

	assert.Equal(t, filepath.Join(root, "bundled", "X", "x.ps1"), l.ScriptPath(d))
	assert.Equal(t, filepath.Join(root, "bundled", "X", ".version"), l.VersionFile("X"))
	assert.False(t, l.Installed(d))

	require.NoError(t, os.MkdirAll(l.RepoDir("X"), 0o755))
	require.NoError(t, os.WriteFile(l.ScriptPath(d), []byte("Write-Output hi"), 0o644))
	assert.True(t, l.Installed(d))
}

func TestExtraKeys(t *testing.T) {
	t.Parallel()

	d := ScriptDescriptor{Parameters: []ParameterSpec{{Name: "A", Type: TypeText}}}
	assert.Equal(t, []string{"B", "C"}, ExtraKeys(d, Values{"C": 1, "A": "x", "B": true}))
}
