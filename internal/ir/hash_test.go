package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEntryIDDeterminism(t *testing.T) {
	payload := IRObject{"var": IRString("hp"), "from": IRInt(3), "to": IRInt(2)}

	id1, err := RecordEntryID("edits", 0, "set hp", payload, 4)
	require.NoError(t, err)
	id2, err := RecordEntryID("edits", 0, "set hp", payload, 4)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
}

func TestRecordEntryIDChangesWithInput(t *testing.T) {
	base := MustRecordEntryID("edits", 0, "a", IRObject{}, 1)

	assert.NotEqual(t, base, MustRecordEntryID("other", 0, "a", IRObject{}, 1))
	assert.NotEqual(t, base, MustRecordEntryID("edits", 1, "a", IRObject{}, 1))
	assert.NotEqual(t, base, MustRecordEntryID("edits", 0, "b", IRObject{}, 1))
	assert.NotEqual(t, base, MustRecordEntryID("edits", 0, "a", IRObject{}, 2))
	assert.Equal(t, base, MustRecordEntryID("edits", 0, "a", nil, 1))
}

func TestOutcomeIDDomainSeparation(t *testing.T) {
	a := OutcomeID("r1", OutcomeCompleted, 1)
	b := OutcomeID("r1", OutcomeFailed, 1)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, OutcomeID("r1", OutcomeCompleted, 1))
}

func TestPlanDigestStable(t *testing.T) {
	p := Plan{Name: "p", Steps: []PlanNode{{Kind: NodeSet, Var: "x", Value: IRInt(1)}}}

	d1, err := PlanDigest(p)
	require.NoError(t, err)
	d2, err := PlanDigest(p)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	p.Steps[0].Value = IRInt(2)
	d3, err := PlanDigest(p)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestHistoryNames(t *testing.T) {
	h := History{Entries: []RecordEntry{{Name: "A"}, {Name: "C"}}}
	assert.Equal(t, []string{"A", "C"}, h.Names())
}
