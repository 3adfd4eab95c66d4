// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ssargent/shmkv/pkg/channel"
)

// Container holds all the dependencies for the application
type Container struct {
	channelFactory channel.Factory
	registry       *prometheus.Registry
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Container{
		channelFactory: channel.NewSharedFactory(),
		registry:       registry,
	}
}

// GetChannelFactory returns the channel factory
func (c *Container) GetChannelFactory() channel.Factory {
	return c.channelFactory
}

// SetChannelFactory allows overriding the channel factory (for testing)
func (c *Container) SetChannelFactory(factory channel.Factory) {
	c.channelFactory = factory
}

// GetRegistry returns the metrics registry
func (c *Container) GetRegistry() *prometheus.Registry {
	return c.registry
}
