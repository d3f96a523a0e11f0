package tree_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flags map[string]bool

func snapshot(tr *tree.Tree) flags {
	out := flags{tr.Path(tr.Root()): tr.Default(tr.Root())}
	for _, id := range tr.Descendants(tr.Root()) {
		out[tr.Path(id)] = tr.Default(id)
	}
	return out
}

func insert(t *testing.T, tr *tree.Tree, limit tree.NodeID, path, value string, dflt bool) tree.NodeID {
	t.Helper()
	id, err := tr.NewPath(path, value, tree.PathOptions{Update: true})
	require.NoError(t, err, path)
	if id != tree.NoNode {
		tree.Propagate(tr, id, limit, dflt)
	}
	return id
}

func TestPropagate_DefaultLeafMarksGroupingContainer(t *testing.T) {
	tr := newReport(t)
	root := tr.Root()

	insert(t, tr, root, "/example:report/stats/count", "0", true)

	got := snapshot(tr)
	assert.True(t, got["/example:report/stats/count"])
	assert.True(t, got["/example:report/stats"])
	assert.False(t, got["/example:report"], "operations are never marked")
}

func TestPropagate_StopsAtPresenceContainer(t *testing.T) {
	tr := newReport(t)

	insert(t, tr, tr.Root(), "/example:report/marker/level", "1", true)

	got := snapshot(tr)
	assert.True(t, got["/example:report/marker/level"])
	assert.False(t, got["/example:report/marker"])
}

func TestPropagate_StopsAtKeyedListEntry(t *testing.T) {
	tr := newReport(t)

	insert(t, tr, tr.Root(), "/example:report/entry[id='4']/note", "none", true)

	got := snapshot(tr)
	assert.True(t, got["/example:report/entry[id='4']/note"])
	assert.False(t, got["/example:report/entry[id='4']"])
	assert.False(t, got["/example:report/entry[id='4']/id"], "list keys are never marked")
}

func TestPropagate_NewKeyedEntryMarksLastChild(t *testing.T) {
	tr := newReport(t)

	id := insert(t, tr, tr.Root(), "/example:report/entry[id='1']/note", "none", true)
	require.Equal(t, "/example:report/entry[id='1']", tr.Path(id), "the entry is the first created node")

	kids := tr.Children(id)
	require.Len(t, kids, 2)
	assert.Equal(t, "/example:report/entry[id='1']/id", tr.Path(kids[0]))

	got := snapshot(tr)
	assert.True(t, got["/example:report/entry[id='1']/note"])
	assert.False(t, got["/example:report/entry[id='1']/id"], "the descent follows the last child")
	assert.False(t, got["/example:report/entry[id='1']"])
	assert.False(t, got["/example:report"])
}

func TestPropagate_BoundaryLaw(t *testing.T) {
	// Whatever the insertion order, boundaries never become default.
	records := []struct {
		path, value string
		dflt        bool
	}{
		{"/example:report/marker", "", true},
		{"/example:report/marker/level", "1", true},
		{"/example:report/entry[id='1']", "", true},
		{"/example:report/entry[id='1']/note", "none", true},
		{"/example:report/entry[id='2']/note", "x", false},
		{"/example:report/stats/unit", "pkts", true},
	}

	for shift := range records {
		tr := newReport(t)
		for i := range records {
			r := records[(i+shift)%len(records)]
			insert(t, tr, tr.Root(), r.path, r.value, r.dflt)
		}
		for _, id := range tr.Descendants(tr.Root()) {
			sch := tr.Schema(id)
			if sch.IsPresenceContainer() || sch.IsKeyedList() {
				assert.False(t, tr.Default(id), "shift %d: %s", shift, tr.Path(id))
			}
		}
	}
}

func TestPropagate_Idempotent(t *testing.T) {
	tr := newReport(t)
	id := insert(t, tr, tr.Root(), "/example:report/stats/unit", "pkts", true)
	once := snapshot(tr)

	tree.Propagate(tr, id, tr.Root(), true)
	assert.Equal(t, once, snapshot(tr))

	leaf := tr.Children(id)[0]
	tree.Propagate(tr, leaf, tr.Root(), false)
	cleared := snapshot(tr)
	tree.Propagate(tr, leaf, tr.Root(), false)
	assert.Equal(t, cleared, snapshot(tr))
}

func TestPropagate_ClearOnNonDefault(t *testing.T) {
	tr := newReport(t)
	insert(t, tr, tr.Root(), "/example:report/stats/unit", "pkts", true)
	require.True(t, snapshot(tr)["/example:report/stats"])

	insert(t, tr, tr.Root(), "/example:report/stats/count", "9", false)

	got := snapshot(tr)
	assert.False(t, got["/example:report/stats"], "ancestor cleared")
	assert.True(t, got["/example:report/stats/unit"], "siblings keep their flag")
	assert.False(t, got["/example:report/stats/count"])
}

func TestPropagate_ClearStopsAtExplicitAncestor(t *testing.T) {
	tr, act := newInterfaces(t)
	entry := tr.Parent(act)
	top := tr.Parent(entry)
	tr.SetDefault(act, true)
	tr.SetDefault(top, true) // not reachable through the explicit entry

	id, err := tr.NewPath("/ietf-interfaces:interfaces/interface[name='eth0']/reset/delay", "5", tree.PathOptions{})
	require.NoError(t, err)
	tree.Propagate(tr, id, act, false)

	assert.False(t, tr.Default(act))
	assert.False(t, tr.Default(entry))
	assert.True(t, tr.Default(top), "walk stops at the first explicit ancestor")
}

func TestPropagate_ActionReplyScenario(t *testing.T) {
	tr, act := newInterfaces(t)
	tr.SetOutput(true)

	insert(t, tr, act, "/ietf-interfaces:interfaces/interface[name='eth0']/reset/status", "done", true)

	got := snapshot(tr)
	assert.True(t, got["/ietf-interfaces:interfaces/interface[name='eth0']/reset/status"])
	assert.True(t, got["/ietf-interfaces:interfaces/interface[name='eth0']/reset"])
	assert.False(t, got["/ietf-interfaces:interfaces/interface[name='eth0']"])
	assert.False(t, got["/ietf-interfaces:interfaces"])
}

func TestAddDefaults(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	op, _ := ctx.Top("example:compute")
	tr := tree.New(op, false)
	_, err := tr.NewPath("/example:compute/y", "5", tree.PathOptions{})
	require.NoError(t, err)

	tr.AddDefaults(tr.Root())

	got := snapshot(tr)
	assert.Equal(t, flags{
		"/example:compute":              false,
		"/example:compute/y":            false,
		"/example:compute/x":            true,
		"/example:compute/opts":         true,
		"/example:compute/opts/verbose": true,
	}, got)

	tr.AddDefaults(tr.Root())
	assert.Equal(t, 5, tr.Len(), "adding defaults twice adds nothing")
}

func TestAddDefaults_SkipsPresenceContainers(t *testing.T) {
	tr := newReport(t)
	tr.AddDefaults(tr.Root())

	for _, id := range tr.Descendants(tr.Root()) {
		assert.NotEqual(t, "marker", tr.Schema(id).Name)
		assert.NotEqual(t, schema.KindList, tr.Schema(id).Kind)
	}
	assert.Equal(t, "0", tr.Value(tr.Children(tr.Children(tr.Root())[0])[0]))
}

// Records are applied in arrival order. A repeated record carrying an
// unchanged value inserts nothing, so the first default flag wins.
func TestPropagate_InsertionOrderSensitivity(t *testing.T) {
	const unit = "/example:report/stats/unit"

	explicitFirst := newReport(t)
	insert(t, explicitFirst, explicitFirst.Root(), unit, "pkts", false)
	assert.Equal(t, tree.NoNode, insert(t, explicitFirst, explicitFirst.Root(), unit, "pkts", true))

	defaultFirst := newReport(t)
	insert(t, defaultFirst, defaultFirst.Root(), unit, "pkts", true)
	assert.Equal(t, tree.NoNode, insert(t, defaultFirst, defaultFirst.Root(), unit, "pkts", false))

	assert.False(t, snapshot(explicitFirst)[unit])
	assert.False(t, snapshot(explicitFirst)["/example:report/stats"])
	assert.True(t, snapshot(defaultFirst)[unit])
	assert.True(t, snapshot(defaultFirst)["/example:report/stats"])
}
