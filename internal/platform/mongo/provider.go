// Package mongo manages a shared MongoDB client for the repository layer.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fluxcart/api/internal/platform/config"
)

const defaultConnectTimeout = 10 * time.Second

var ErrProviderClosed = errors.New("mongo: provider is closed")

// Provider lazily initialises a shared mongo client instance.
type Provider struct {
	cfg            config.MongoConfig
	connectTimeout time.Duration
	clientOpts     []*options.ClientOptions

	mu     sync.Mutex
	client *mongo.Client

	closed atomic.Bool
}

// ProviderOption customises the Provider behaviour.
type ProviderOption func(*Provider)

// WithConnectTimeout overrides the timeout used when dialing the server.
func WithConnectTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.connectTimeout = timeout
		}
	}
}

// WithClientOptions appends driver options applied during initialisation.
func WithClientOptions(opts ...*options.ClientOptions) ProviderOption {
	return func(p *Provider) {
		if len(opts) > 0 {
			p.clientOpts = append(p.clientOpts, opts...)
		}
	}
}

// NewProvider constructs a Provider using the supplied configuration.
func NewProvider(cfg config.MongoConfig, opts ...ProviderOption) *Provider {
	provider := &Provider{
		cfg:            cfg,
		connectTimeout: defaultConnectTimeout,
	}
	if cfg.ConnectTimeout > 0 {
		provider.connectTimeout = cfg.ConnectTimeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	return provider
}

// Client returns the lazily initialised mongo client, dialing and pinging the
// server on first use.
func (p *Provider) Client(ctx context.Context) (*mongo.Client, error) {
	if ctx == nil {
		return nil, errors.New("mongo: context is required")
	}
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil, ErrProviderClosed
	}
	if p.client != nil {
		return p.client, nil
	}

	client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// Database returns a handle on the configured database.
func (p *Provider) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(p.cfg.Database), nil
}

func (p *Provider) connect(ctx context.Context) (*mongo.Client, error) {
	uri := strings.TrimSpace(p.cfg.URI)
	if uri == "" {
		return nil, errors.New("mongo: connection uri is required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, p.clientOpts...)
	client, err := mongo.Connect(dialCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, nil
}

// Ping verifies connectivity against the primary. It dials on first use.
func (p *Provider) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client. The Provider cannot be reused afterwards.
func (p *Provider) Close(ctx context.Context) error {
	if p == nil || p.closed.Load() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil
	}
	p.closed.Store(true)

	client := p.client
	p.client = nil
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
