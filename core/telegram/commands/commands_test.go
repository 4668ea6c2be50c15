package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandEndpoints(t *testing.T) {
	c := Command{Aliases: []string{"info", "/about", " "}}
	assert.Equal(t, []string{"/help", "/info", "/about"}, c.Endpoints("help"))
}

func TestCommandVisible(t *testing.T) {
	assert.True(t, Command{}.Visible())
	assert.False(t, Command{AdminOnly: true}.Visible())
	assert.False(t, Command{Hidden: true}.Visible())
}
