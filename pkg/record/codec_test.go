package record_test

import (
	"encoding/json"
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	op, _ := ctx.Top("example:report")
	tr := tree.New(op, true)

	build := func(path, value string) tree.NodeID {
		id, err := tr.NewPath(path, value, tree.PathOptions{})
		require.NoError(t, err)
		return id
	}

	stats := build("/example:report/stats/count", "12")
	count := tr.Children(stats)[0]
	marker := build("/example:report/marker", "")
	entry := build("/example:report/entry[id='3']", "")
	raw := build("/example:report/raw", `{"a":1}`)
	summary := build("/example:report/summary", "fine")

	tests := []struct {
		id   tree.NodeID
		want record.Value
	}{
		{stats, record.Value{Kind: record.KindContainer}},
		{count, record.Value{Kind: record.KindUint, Uint: 12}},
		{marker, record.Value{Kind: record.KindPresenceContainer}},
		{entry, record.Value{Kind: record.KindList}},
		{raw, record.Value{Kind: record.KindAnydata, Str: `{"a":1}`}},
		{summary, record.Value{Kind: record.KindString, Str: "fine"}},
	}
	for _, tt := range tests {
		rec, err := record.Encode(tr, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tr.Path(tt.id), rec.Path)
		assert.Equal(t, tt.want, rec.Value, rec.Path)
		assert.False(t, rec.Default)
	}

	_, err := record.Encode(tr, tr.Root())
	assert.ErrorIs(t, err, domain.ErrConversion, "operations have no flat form")
}

func TestEncode_CarriesDefaultFlag(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	op, _ := ctx.Top("example:compute")
	tr := tree.New(op, false)
	tr.AddDefaults(tr.Root())

	x := tr.Children(tr.Root())[0]
	rec, err := record.Encode(tr, x)
	require.NoError(t, err)
	assert.Equal(t, "/example:compute/x", rec.Path)
	assert.True(t, rec.Default)
	assert.Equal(t, record.Value{Kind: record.KindString, Str: "0"}, rec.Value)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		value   record.Value
		want    string
		anydata bool
		wantErr bool
	}{
		{record.Value{Kind: record.KindInt, Int: -4}, "-4", false, false},
		{record.Value{Kind: record.KindUint, Uint: 4}, "4", false, false},
		{record.Value{Kind: record.KindBool, Bool: true}, "true", false, false},
		{record.Value{Kind: record.KindDecimal, Decimal: 2.5}, "2.5", false, false},
		{record.Value{Kind: record.KindEnum, Str: "up"}, "up", false, false},
		{record.Value{Kind: record.KindEmpty}, "", false, false},
		{record.Value{Kind: record.KindList}, "", false, false},
		{record.Value{Kind: record.KindAnydata, Str: "<a/>"}, "<a/>", true, false},
		{record.Value{Kind: record.Kind(99)}, "", false, true},
	}
	for _, tt := range tests {
		got, anydata, err := record.Decode(record.Record{Path: "/m:x", Value: tt.value})
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrConversion)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.anydata, anydata)
	}
}

func TestRecord_JSON(t *testing.T) {
	rec := record.Record{Path: "/example:compute/y", Value: record.Value{Kind: record.KindInt, Int: 5}}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/example:compute/y","value":{"kind":"int","int":5}}`, string(data))

	var back record.Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)

	assert.Error(t, json.Unmarshal([]byte(`{"value":{"kind":"weird"}}`), &back))
}

func TestBatch_Release(t *testing.T) {
	b := record.Of(record.Record{Path: "/a:b"})
	assert.Equal(t, 1, b.Len())

	b.Release()
	b.Release() // second release is ignored

	var nilBatch *record.Batch
	assert.Equal(t, 0, nilBatch.Len())
	nilBatch.Release()

	fresh := record.Acquire()
	defer fresh.Release()
	assert.Equal(t, 0, fresh.Len())
}
