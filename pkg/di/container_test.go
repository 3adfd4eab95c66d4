package di

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssargent/shmkv/pkg/channel"
)

func TestNewContainer(t *testing.T) {
	c := NewContainer()

	assert.IsType(t, &channel.SharedFactory{}, c.GetChannelFactory())
	assert.NotNil(t, c.GetRegistry())

	families, err := c.GetRegistry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestContainer_SetChannelFactory(t *testing.T) {
	c := NewContainer()
	local := channel.NewLocalFactory()

	c.SetChannelFactory(local)
	assert.Same(t, local, c.GetChannelFactory())
}
