package rpc_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/rpc"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intRecord(path string, v int64, dflt bool) record.Record {
	return record.Record{Path: path, Value: record.Value{Kind: record.KindInt, Int: v}, Default: dflt}
}

func strRecord(path, v string, dflt bool) record.Record {
	return record.Record{Path: path, Value: record.Value{Kind: record.KindString, Str: v}, Default: dflt}
}

func TestAssemble_EmptyOutputIsAck(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req := newCompute(t, ctx, "5")

	reply, err := rpc.Assemble(domain.ShapeOperation, req, req.Root(), record.Acquire())
	require.NoError(t, err)
	assert.Nil(t, reply)

	reply, err = rpc.Assemble(domain.ShapeOperation, req, req.Root(), nil)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestAssemble_Operation(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req := newCompute(t, ctx, "5")
	out := record.Of(intRecord("/example:compute/y", 5, false))
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeOperation, req, req.Root(), out)
	require.NoError(t, err)
	require.NotNil(t, reply)
	defer reply.Free()

	assert.True(t, reply.Output())
	kids := reply.Children(reply.Root())
	require.Len(t, kids, 1, "input nodes never leak into the reply")
	assert.Equal(t, "y", reply.Schema(kids[0]).Name)
	assert.Equal(t, "5", reply.Value(kids[0]))
	assert.False(t, reply.Default(kids[0]))

	// the request is untouched
	assert.False(t, req.Output())
	assert.Len(t, req.Children(req.Root()), 3)
}

func TestAssemble_ValidationGate(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req := newCompute(t, ctx, "5")
	// a structural record for the operation itself adds nothing; y stays missing
	out := record.Of(record.Record{Path: "/example:compute", Value: record.Value{Kind: record.KindContainer}})
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeOperation, req, req.Root(), out)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, reply)
}

func TestAssemble_BadValue(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req := newCompute(t, ctx, "5")
	out := record.Of(strRecord("/example:compute/y", "five", false))
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeOperation, req, req.Root(), out)
	assert.ErrorIs(t, err, domain.ErrConversion)
	assert.Nil(t, reply)
}

func TestAssemble_ActionDefaults(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req, act := newReset(t, ctx)
	base := req.Dup()
	out := record.Of(strRecord("/ietf-interfaces:interfaces/interface[name='eth0']/reset/status", "done", true))
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeAction, base, act, out)
	require.NoError(t, err)
	require.NotNil(t, reply)
	defer reply.Free()

	status := reply.Children(act)
	require.Len(t, status, 1, "delay input is discarded")
	assert.Equal(t, "status", reply.Schema(status[0]).Name)
	assert.True(t, reply.Default(status[0]))
	assert.True(t, reply.Default(act), "reset is not presence-bearing")

	entry := reply.Parent(act)
	assert.Equal(t, "interface", reply.Schema(entry).Name)
	assert.False(t, reply.Default(entry), "keyed list entries are never implied")
	assert.False(t, reply.Default(reply.Root()))

	assert.Equal(t, "/ietf-interfaces:interfaces/interface[name='eth0']/reset", reply.Path(act))
}

func TestAssemble_ActionRejectsForeignPaths(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req, act := newReset(t, ctx)
	base := req.Dup()
	defer base.Free()
	out := record.Of(
		strRecord("/ietf-interfaces:interfaces/interface[name='eth1']/enabled", "false", false),
	)
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeAction, base, act, out)
	assert.ErrorIs(t, err, domain.ErrConversion)
	assert.Nil(t, reply)
}

func TestAssemble_UnchangedValueKeepsFlags(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req, act := newReset(t, ctx)
	base := req.Dup()
	out := record.Of(
		strRecord("/ietf-interfaces:interfaces/interface[name='eth0']/reset/status", "done", true),
		// same value again, reported explicit; nothing is inserted
		strRecord("/ietf-interfaces:interfaces/interface[name='eth0']/reset/status", "done", false),
		intRecord("/ietf-interfaces:interfaces/interface[name='eth0']/reset/code", 7, false),
	)
	defer out.Release()

	reply, err := rpc.Assemble(domain.ShapeAction, base, act, out)
	require.NoError(t, err)
	defer reply.Free()

	kids := reply.Children(act)
	require.Len(t, kids, 2)
	assert.True(t, reply.Default(kids[0]))
	assert.False(t, reply.Default(kids[1]))
	assert.False(t, reply.Default(act), "an explicit child clears the action flag")
}

func TestAssemble_InvalidAction(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	req, _ := newReset(t, ctx)
	out := record.Of(strRecord("/ietf-interfaces:interfaces", "", false))
	defer out.Release()

	_, err := rpc.Assemble(domain.ShapeAction, req, tree.NoNode, out)
	assert.ErrorIs(t, err, domain.ErrNoAction)
}
