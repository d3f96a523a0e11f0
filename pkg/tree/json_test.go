package tree_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_Operation(t *testing.T) {
	ctx := testutils.SetupSchema(t)

	tr, err := tree.DecodeJSON(ctx, []byte(`{"example:compute": {"y": "5"}}`), tree.DecodeOptions{AddDefaults: true})
	require.NoError(t, err)

	got := snapshot(tr)
	assert.False(t, got["/example:compute/y"])
	assert.True(t, got["/example:compute/x"])
	assert.True(t, got["/example:compute/opts/verbose"])
}

func TestDecodeJSON_ActionEnvelope(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	doc := `{"ietf-interfaces:interfaces": {"interface": [{"reset": {"delay": 10}, "name": "eth0"}]}}`

	tr, err := tree.DecodeJSON(ctx, []byte(doc), tree.DecodeOptions{})
	require.NoError(t, err)

	var paths []string
	for _, id := range tr.Descendants(tr.Root()) {
		paths = append(paths, tr.Path(id))
	}
	assert.Equal(t, []string{
		"/ietf-interfaces:interfaces/interface[name='eth0']",
		"/ietf-interfaces:interfaces/interface[name='eth0']/name",
		"/ietf-interfaces:interfaces/interface[name='eth0']/reset",
		"/ietf-interfaces:interfaces/interface[name='eth0']/reset/delay",
	}, paths)
}

func TestDecodeJSON_Errors(t *testing.T) {
	ctx := testutils.SetupSchema(t)

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{`, domain.ErrConversion},
		{"two roots", `{"example:ping": {}, "example:compute": {}}`, domain.ErrConversion},
		{"no prefix", `{"compute": {}}`, domain.ErrUnknownSchema},
		{"unknown member", `{"example:compute": {"z": 1}}`, domain.ErrUnknownSchema},
		{"bad value", `{"example:compute": {"opts": {"verbose": "maybe"}}}`, domain.ErrConversion},
		{"output member in input", `{"example:report": {"summary": "s"}}`, domain.ErrUnknownSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.DecodeJSON(ctx, []byte(tt.doc), tree.DecodeOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeJSON_WithDefaults(t *testing.T) {
	tr := newReport(t)
	insert(t, tr, tr.Root(), "/example:report/summary", "ok", false)
	insert(t, tr, tr.Root(), "/example:report/stats/count", "0", true)
	insert(t, tr, tr.Root(), "/example:report/stats/unit", "pkts", false)
	insert(t, tr, tr.Root(), "/example:report/tag[.='a']", "a", false)
	insert(t, tr, tr.Root(), "/example:report/tag[.='b']", "b", false)

	tests := []struct {
		mode domain.WithDefaultsMode
		want string
	}{
		{domain.WithDefaultsReportAll,
			`{"example:report":{"summary":"ok","stats":{"count":0,"unit":"pkts"},"tag":["a","b"]}}`},
		{domain.WithDefaultsExplicit,
			`{"example:report":{"summary":"ok","stats":{"count":0,"unit":"pkts"},"tag":["a","b"]}}`},
		{domain.WithDefaultsTrim,
			`{"example:report":{"summary":"ok","tag":["a","b"]}}`},
		{domain.WithDefaultsReportAllTagged,
			`{"example:report":{"summary":"ok","stats":{"count":0,"@count":{"ietf-netconf-with-defaults:default":true},"unit":"pkts","@unit":{"ietf-netconf-with-defaults:default":true}},"tag":["a","b"]}}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			out, err := tr.EncodeJSON(tt.mode)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}
}

func TestEncodeJSON_RoundTripsAction(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	doc := `{"ietf-interfaces:interfaces":{"interface":[{"name":"eth0","enabled":false,"reset":{"delay":10}}]}}`

	tr, err := tree.DecodeJSON(ctx, []byte(doc), tree.DecodeOptions{})
	require.NoError(t, err)

	out, err := tr.EncodeJSON(domain.WithDefaultsReportAll)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
}

func TestEncodeJSON_ExplicitKeepsActionReply(t *testing.T) {
	tr, act := newInterfaces(t)
	tr.SetOutput(true)
	insert(t, tr, act, "/ietf-interfaces:interfaces/interface[name='eth0']/reset/status", "done", true)
	enabled, err := tr.NewPath("/ietf-interfaces:interfaces/interface[name='eth0']/enabled", "true", tree.PathOptions{})
	require.NoError(t, err)
	tr.SetDefault(enabled, true)
	require.True(t, tr.Default(act))

	out, err := tr.EncodeJSON(domain.WithDefaultsExplicit)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"ietf-interfaces:interfaces":{"interface":[{"name":"eth0","reset":{"status":"done"}}]}}`,
		string(out), "configuration defaults hide, action output does not")
}

func TestEncodeJSON_ExplicitKeepsDefaultOnlyOutput(t *testing.T) {
	tr := newReport(t)
	insert(t, tr, tr.Root(), "/example:report/stats/count", "0", true)

	out, err := tr.EncodeJSON(domain.WithDefaultsExplicit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"example:report":{"stats":{"count":0}}}`, string(out))
}
