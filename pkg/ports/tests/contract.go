package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BackendContractTest is a reusable test suite that verifies if an adapter complies with
// ports.Backend. Handlers are subscribed through registry, which must deliver calls made
// on backend.
func BackendContractTest(t *testing.T, backend ports.Backend, registry ports.Registry) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	seen := make(chan ports.Request, 16)
	respond := func(out []record.Record, err error) ports.Handler {
		return func(ctx context.Context, req ports.Request) ([]record.Record, error) {
			seen <- req
			return out, err
		}
	}
	last := func(t *testing.T) ports.Request {
		t.Helper()
		select {
		case req := <-seen:
			return req
		case <-time.After(5 * time.Second):
			t.Fatal("handler was not called")
			return ports.Request{}
		}
	}

	pong := []record.Record{{Path: "/contract:echo/out", Value: record.Value{Kind: record.KindString, Str: "pong"}}}
	require.NoError(t, registry.Register(ctx, "/contract:echo", respond(pong, nil)))
	require.NoError(t, registry.Register(ctx, "/contract:box/item/act", respond(nil, nil)))
	require.NoError(t, registry.Register(ctx, "/contract:busy", respond(nil, &domain.BackendError{
		Code:    domain.StatusLocked,
		Message: "resource busy",
		Path:    "/contract:busy",
	})))
	require.NoError(t, registry.Register(ctx, "/contract:broken", respond(nil, errors.New("handler exploded"))))

	t.Run("RPC_RoundTrip", func(t *testing.T) {
		input := []record.Record{{Path: "/contract:echo/in", Value: record.Value{Kind: record.KindInt, Int: 7}}}
		out, err := backend.SendRPC(ctx, "s1", "/contract:echo", input)
		require.NoError(t, err)
		assert.Equal(t, pong, out)

		req := last(t)
		assert.Equal(t, "s1", req.Session)
		assert.Equal(t, "/contract:echo", req.Path)
		assert.False(t, req.Action)
		assert.Equal(t, input, req.Input)
		assert.Equal(t, domain.DatastoreRunning, req.Datastore, "sessions start on running")
	})

	t.Run("Action_MatchesSchemaPath", func(t *testing.T) {
		out, err := backend.SendAction(ctx, "s1", "/contract:box/item[name='a']/act", nil)
		require.NoError(t, err)
		assert.Empty(t, out)

		req := last(t)
		assert.True(t, req.Action)
		assert.Equal(t, "/contract:box/item[name='a']/act", req.Path)
	})

	t.Run("NotSupported", func(t *testing.T) {
		_, err := backend.SendRPC(ctx, "s1", "/contract:missing", nil)
		var be *domain.BackendError
		require.ErrorAs(t, err, &be)
		assert.True(t, be.NotSupported(), "code %s", be.Code)
	})

	t.Run("BackendError_Preserved", func(t *testing.T) {
		_, err := backend.SendRPC(ctx, "s1", "/contract:busy", nil)
		var be *domain.BackendError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, domain.StatusLocked, be.Code)
		assert.Equal(t, "resource busy", be.Message)
		assert.Equal(t, "/contract:busy", be.Path)
		last(t)
	})

	t.Run("HandlerError_OperationFailed", func(t *testing.T) {
		_, err := backend.SendRPC(ctx, "s1", "/contract:broken", nil)
		var be *domain.BackendError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, domain.StatusOperationFailed, be.Code)
		assert.Equal(t, "handler exploded", be.Message)
		last(t)
	})

	t.Run("SwitchDatastore", func(t *testing.T) {
		require.NoError(t, backend.SwitchDatastore(ctx, "s2", domain.DatastoreCandidate))
		_, err := backend.SendRPC(ctx, "s2", "/contract:echo", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DatastoreCandidate, last(t).Datastore)

		require.NoError(t, backend.SwitchDatastore(ctx, "s2", domain.DatastoreRunning))
		_, err = backend.SendRPC(ctx, "s2", "/contract:echo", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DatastoreRunning, last(t).Datastore)
	})
}
