package msr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeVoice(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), repeatStart(), bar("2"), repeatEnd("2", 3), finalize()))

	n := v.Describe()
	assert.Equal(t, "voice", n.Kind)
	assert.Equal(t, "S[1] R+x3{S[2]}", n.Attrs["shape"])
	require.Len(t, n.Children, 2)
	assert.Equal(t, "segment", n.Children[0].Kind)

	rep := n.Children[1]
	assert.Equal(t, "repeat", rep.Kind)
	assert.Equal(t, "3", rep.Attrs["times"])
	assert.Equal(t, "completed", rep.Attrs["phase"])
	require.Len(t, rep.Children, 1)
	common := rep.Children[0]
	assert.Equal(t, "common-part", common.Kind)
	measure := common.Children[0].Children[0]
	assert.Equal(t, "measure", measure.Kind)
	assert.Equal(t, "2", measure.Attrs["number"])
	assert.Equal(t, "1/1", measure.Attrs["filled"])
	assert.Equal(t, "regular", measure.Attrs["class"])
}

func TestCheckReportsUnfinalizedVoice(t *testing.T) {
	v := newTestVoice()
	drive(t, v, seq(bar("1"), repeatStart(), bar("2")))
	err := v.Check()
	require.Error(t, err)
	var ce *CheckError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Problems, "not finalized")
}
