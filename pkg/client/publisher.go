// Package client publishes commands to a running shmkv server.
package client

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/ssargent/shmkv/pkg/channel"
	"github.com/ssargent/shmkv/pkg/codec"
)

// Publisher writes commands into the shared region. It does not wait for
// the server to apply them.
type Publisher struct {
	syncer *channel.Synchronizer
	codec  *codec.CommandCodec
	logger *zap.Logger
	nonce  func() uint64
}

// NewPublisher creates a publisher over an attached channel. logger may be nil.
func NewPublisher(syncer *channel.Synchronizer, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		syncer: syncer,
		codec:  codec.NewCommandCodec(syncer.Region().Capacity()),
		logger: logger,
		nonce:  rand.Uint64,
	}
}

// Publish encodes cmd with a fresh nonce and writes it once the channel is
// free. It returns with the semaphore held; the server releases it.
func (p *Publisher) Publish(ctx context.Context, cmd codec.Command) error {
	nonce := p.nonce()
	data, err := p.codec.Encode(cmd, nonce)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", cmd.Op, err)
	}

	if err := p.syncer.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", cmd.Op, err)
	}

	p.logger.Debug("published",
		zap.Stringer("op", cmd.Op),
		zap.Uint64("nonce", nonce),
		zap.Int("bytes", len(data)))
	return nil
}

// Close releases this process's handles on the channel. The semaphore is
// closed but never unlinked; that belongs to the server.
func (p *Publisher) Close() error {
	semErr := p.syncer.Semaphore().Close()
	regionErr := p.syncer.Region().Close()
	if semErr != nil {
		return fmt.Errorf("failed to close semaphore: %w", semErr)
	}
	if regionErr != nil {
		return fmt.Errorf("failed to detach region: %w", regionErr)
	}
	return nil
}
