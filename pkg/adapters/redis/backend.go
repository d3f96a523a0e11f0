package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix shared by Backend and Responder.
const DefaultPrefix = "np2:"

// reply is the wire shape a Responder pushes back for one request.
type reply struct {
	Status  domain.Status   `json:"status"`
	Message string          `json:"message,omitempty"`
	Path    string          `json:"path,omitempty"`
	Output  []record.Record `json:"output,omitempty"`
}

// keys derives every Redis key from a common prefix.
type keys string

func (k keys) handlers() string { return string(k) + "handlers" }
func (k keys) datastore(session string) string { return string(k) + "ds:" + session }
func (k keys) queue(schemaPath string) string { return string(k) + "rpc:" + schemaPath }
func (k keys) reply(id string) string { return string(k) + "reply:" + id }
func (k keys) wake(responderID string) string { return string(k) + "wake:" + responderID }

// Backend implements ports.Backend on Redis lists.
//
// A call pushes a JSON request on the queue of its target schema path and
// blocks on a per-request reply list. Targets are known through the handler
// set maintained by Responders; a call to an unknown target fails with
// domain.StatusNotFound without being queued.
type Backend struct {
	client  *backend.Client
	keys    keys
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.keys = keys(prefix)
	}
}

// WithTimeout bounds how long a call waits for its reply. Values below one
// second are rounded up by Redis.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// New creates a backend connected to the given Redis server.
func New(address, password string, db int, opts ...Option) *Backend {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a backend from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Backend {
	b := &Backend{
		client:  client,
		keys:    DefaultPrefix,
		timeout: 5 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ ports.Backend = (*Backend)(nil)

// SwitchDatastore stores the datastore selector of session.
func (b *Backend) SwitchDatastore(ctx context.Context, session string, ds domain.Datastore) error {
	if err := b.client.Set(ctx, b.keys.datastore(session), string(ds), 0).Err(); err != nil {
		return fmt.Errorf("failed to switch datastore: %w", err)
	}
	return nil
}

func (b *Backend) datastore(ctx context.Context, session string) (domain.Datastore, error) {
	val, err := b.client.Get(ctx, b.keys.datastore(session)).Result()
	if errors.Is(err, backend.Nil) {
		return domain.DatastoreRunning, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read datastore: %w", err)
	}
	return domain.ParseDatastore(val)
}

// SendRPC queues the operation call and waits for its reply.
func (b *Backend) SendRPC(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error) {
	return b.call(ctx, session, path, false, input)
}

// SendAction queues the action call and waits for its reply.
func (b *Backend) SendAction(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error) {
	return b.call(ctx, session, path, true, input)
}

func (b *Backend) call(ctx context.Context, session, path string, action bool, input []record.Record) ([]record.Record, error) {
	target := schema.StripPredicates(path)
	known, err := b.client.SIsMember(ctx, b.keys.handlers(), target).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up handler: %w", err)
	}
	if !known {
		return nil, &domain.BackendError{
			Code:    domain.StatusNotFound,
			Message: "no subscriber for " + path,
			Path:    path,
		}
	}

	ds, err := b.datastore(ctx, session)
	if err != nil {
		return nil, err
	}
	req := ports.Request{
		ID:        uuid.NewString(),
		Session:   session,
		Path:      path,
		Action:    action,
		Datastore: ds,
		Input:     input,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := b.client.RPush(ctx, b.keys.queue(target), payload).Err(); err != nil {
		return nil, fmt.Errorf("failed to queue request: %w", err)
	}
	b.logger.Debug("Request queued", "id", req.ID, "path", path, "action", action)

	res, err := b.client.BLPop(ctx, b.timeout, b.keys.reply(req.ID)).Result()
	if errors.Is(err, backend.Nil) {
		return nil, &domain.BackendError{
			Code:    domain.StatusTimeout,
			Message: fmt.Sprintf("no reply within %s", b.timeout),
			Path:    path,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to wait for reply: %w", err)
	}

	var rep reply
	if err := json.Unmarshal([]byte(res[1]), &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reply: %w", err)
	}
	if rep.Status != domain.StatusOK {
		return nil, &domain.BackendError{Code: rep.Status, Message: rep.Message, Path: rep.Path}
	}
	return rep.Output, nil
}

// Close closes the redis client.
func (b *Backend) Close() error {
	return b.client.Close()
}
