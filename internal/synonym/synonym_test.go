package synonym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/faq-linebot-go/internal/errors"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	table := Default()

	assert.Equal(t, 19, table.Len())
	assert.Equal(t, []string{
		"tunnel", "url", "connection", "reset", "password", "platform", "tcp", "tls",
		"data", "timeout", "error", "closed", "working", "debugger", "encryption",
		"localhost", "permanent", "server", "ssh",
	}, table.Concepts())

	assert.True(t, table.Contains("password", "pwd"))
	assert.True(t, table.Contains("platform", "windows"))
	assert.False(t, table.Contains("password", "windows"))
	assert.False(t, table.Contains("nope", "pwd"))
}

func TestGroupsContaining(t *testing.T) {
	t.Parallel()
	table, err := New([]Group{
		{Concept: "a", Variants: []string{"x", "y"}},
		{Concept: "b", Variants: []string{"y", "z"}},
	})
	require.NoError(t, err)

	tests := []struct {
		word string
		want [][]string
	}{
		{"x", [][]string{{"x", "y"}}},
		{"y", [][]string{{"x", "y"}, {"y", "z"}}},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, table.GroupsContaining(tt.word))
		})
	}
}

func TestNew_LowercasesAndDedupes(t *testing.T) {
	t.Parallel()
	table, err := New([]Group{
		{Concept: "Tunnel", Variants: []string{"Tunnel", "tunnels", "TUNNELS", " "}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"tunnel"}, table.Concepts())
	assert.Equal(t, [][]string{{"tunnel", "tunnels"}}, table.GroupsContaining("tunnels"))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		groups []Group
		field  string
	}{
		{"empty concept", []Group{{Concept: " ", Variants: []string{"a"}}}, "groups[0].concept"},
		{"empty variants", []Group{{Concept: "a", Variants: nil}}, "groups[0].variants"},
		{"blank variants", []Group{{Concept: "a", Variants: []string{"a"}}, {Concept: "b", Variants: []string{"", "  "}}}, "groups[1].variants"},
		{"duplicate concept", []Group{{Concept: "a", Variants: []string{"a"}}, {Concept: "A", Variants: []string{"b"}}}, "groups[1].concept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.groups)
			require.Error(t, err)
			assert.True(t, domerrors.IsInvalidInput(err))

			var verr *domerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	table, err := Parse([]byte("groups:\n  - concept: ssh\n    variants: [ssh, secure shell]\n"))
	require.NoError(t, err)
	assert.True(t, table.Contains("ssh", "secure shell"))

	_, err = Parse([]byte("groups: [unterminated"))
	assert.Error(t, err)
}
