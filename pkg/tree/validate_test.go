package tree_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MandatoryMissing(t *testing.T) {
	ctx := testutils.SetupSchema(t)
	op, _ := ctx.Top("example:compute")
	tr := tree.New(op, true)

	err := tr.Validate(tr.Root())
	require.Error(t, err)

	errs := schema.ValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "/example:compute/y")
	assert.Contains(t, errs[0].Error(), "missing mandatory node")

	_, err = tr.NewPath("/example:compute/y", "5", tree.PathOptions{})
	require.NoError(t, err)
	assert.NoError(t, tr.Validate(tr.Root()))
}

func TestValidate_Cardinality(t *testing.T) {
	tr := newReport(t)
	for _, id := range []string{"1", "2", "3", "4"} {
		_, err := tr.NewPath("/example:report/entry[id='"+id+"']", "", tree.PathOptions{})
		require.NoError(t, err)
	}

	err := tr.Validate(tr.Root())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many elements")
}

func TestValidate_ChecksValuesAndNestedEntries(t *testing.T) {
	tr, act := newInterfaces(t)
	tr.SetOutput(true)

	_, err := tr.NewPath("/ietf-interfaces:interfaces/interface[name='eth0']/reset/code", "3", tree.PathOptions{})
	require.NoError(t, err)
	assert.NoError(t, tr.Validate(act))
	assert.NoError(t, tr.Validate(tr.Root()))
}
