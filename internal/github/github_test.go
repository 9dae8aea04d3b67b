package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ideas/internal/models"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		ref   string
		owner string
		repo  string
	}{
		{"joescharf/pm", "joescharf", "pm"},
		{"https://github.com/joescharf/pm", "joescharf", "pm"},
		{"https://github.com/joescharf/pm.git", "joescharf", "pm"},
		{"https://github.com/joescharf/pm/", "joescharf", "pm"},
		{"git@github.com:joescharf/pm.git", "joescharf", "pm"},
		{"  github.com/joescharf/pm  ", "joescharf", "pm"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			owner, repo, err := ParseRepoRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestParseRepoRef_Invalid(t *testing.T) {
	for _, ref := range []string{"not-a-url", "", "https://github.com/joescharf", "a/b/c"} {
		_, _, err := ParseRepoRef(ref)
		assert.ErrorIs(t, err, models.ErrValidation, ref)
	}
}

func TestDecodeRepoInfo(t *testing.T) {
	data := []byte(`{"name":"pm","description":"Project manager for developers","stargazerCount":42,"primaryLanguage":{"name":"Go"},"url":"https://github.com/joescharf/pm"}`)

	info, err := decodeRepoInfo("joescharf", data)
	require.NoError(t, err)
	assert.Equal(t, &RepoInfo{
		Owner:       "joescharf",
		Name:        "pm",
		Description: "Project manager for developers",
		Language:    "Go",
		Stars:       42,
		URL:         "https://github.com/joescharf/pm",
	}, info)

	_, err = decodeRepoInfo("x", []byte("not json"))
	assert.Error(t, err)
}

func TestCollection(t *testing.T) {
	c := Collection(&RepoInfo{Owner: "joescharf", Name: "pm", Description: " Tracks projects \n", Language: "Go"})
	assert.Equal(t, "joescharf/pm", c.Name)
	assert.Equal(t, "https://github.com/joescharf/pm", c.URL)
	assert.Equal(t, "Tracks projects", c.Summary)
	assert.Equal(t, "Go", c.Language)
}
