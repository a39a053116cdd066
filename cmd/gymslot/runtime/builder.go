package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/harunnryd/gymslot/internal/config"
)

type RuntimeBuilder interface {
	WithContext(ctx context.Context) RuntimeBuilder
	WithConfig(cfg *config.Config) RuntimeBuilder
	WithListen(listen bool) RuntimeBuilder
	WithConsole(out io.Writer) RuntimeBuilder
	Build() (*RuntimeComponents, error)
}

type DefaultRuntimeBuilder struct {
	ctx     context.Context
	cfg     *config.Config
	listen  bool
	console io.Writer
}

func NewRuntimeBuilder() RuntimeBuilder {
	return &DefaultRuntimeBuilder{}
}

func (b *DefaultRuntimeBuilder) WithContext(ctx context.Context) RuntimeBuilder {
	b.ctx = ctx
	return b
}

func (b *DefaultRuntimeBuilder) WithConfig(cfg *config.Config) RuntimeBuilder {
	b.cfg = cfg
	return b
}

// WithListen starts the channel's inbound side, used by the daemon only.
func (b *DefaultRuntimeBuilder) WithListen(listen bool) RuntimeBuilder {
	b.listen = listen
	return b
}

func (b *DefaultRuntimeBuilder) WithConsole(out io.Writer) RuntimeBuilder {
	b.console = out
	return b
}

func (b *DefaultRuntimeBuilder) Build() (*RuntimeComponents, error) {
	if b.ctx == nil {
		b.ctx = context.Background()
	}

	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	components, err := NewRuntimeComponents(b.ctx, b.cfg, Options{Listen: b.listen, Console: b.console})
	if err != nil {
		return nil, err
	}

	return components, nil
}
