package container

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeries_FullyDeclared(t *testing.T) {
	m := NewMem()
	g := m.Grp("acquisition/resp_1")
	g.SetAttr("neurodata_type", "CurrentClampSeries")
	g.SetAttr("stimulus_description", "Long Square")
	g.SetAttr("sweep_number", 3)
	m.SetData("acquisition/resp_1/data", []float64{1, 2, 3}).
		SetAttr("unit", "volts").
		SetAttr("conversion", 0.001).
		SetAttr("offset", 0.5)
	m.SetData("acquisition/resp_1/starting_time", []float64{0.25}).
		SetAttr("rate", 20000.0)

	info, err := ReadSeries(g)
	require.NoError(t, err)

	want := SeriesInfo{
		Name:                "resp_1",
		NeurodataType:       "CurrentClampSeries",
		Unit:                "volts",
		Conversion:          0.001,
		Offset:              0.5,
		Rate:                20000,
		StartingTime:        0.25,
		SweepNumber:         3,
		HasSweepNumber:      true,
		StimulusDescription: "Long Square",
		Data:                []float64{1, 2, 3},
	}
	if diff := cmp.Diff(want, info, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSeries_Defaults(t *testing.T) {
	// A bare series with only data gets the documented defaults: conversion
	// 1, offset 0, no rate, no sweep number.
	m := NewMem()
	m.SetData("acquisition/minimal/data", []float64{9})
	g := m.Grp("acquisition/minimal")

	info, err := ReadSeries(g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, info.Conversion)
	assert.Zero(t, info.Offset)
	assert.Zero(t, info.Rate)
	assert.False(t, info.HasSweepNumber)
	assert.False(t, info.HasTimestamps)
}

func TestReadSeries_SweepNumberDataset(t *testing.T) {
	// Some writers store sweep_number as a one-element dataset instead of a
	// group attribute.
	m := NewMem()
	m.SetData("acquisition/resp/data", []float64{1})
	m.SetInts("acquisition/resp/sweep_number", []int64{7})
	g := m.Grp("acquisition/resp")

	info, err := ReadSeries(g)
	require.NoError(t, err)
	assert.True(t, info.HasSweepNumber)
	assert.Equal(t, 7, info.SweepNumber)
}

func TestReadSeries_Timestamps(t *testing.T) {
	m := NewMem()
	m.SetData("acquisition/resp/data", []float64{1, 2})
	m.SetData("acquisition/resp/timestamps", []float64{0.5, 0.6})
	g := m.Grp("acquisition/resp")

	info, err := ReadSeries(g)
	require.NoError(t, err)
	assert.True(t, info.HasTimestamps)
	assert.Equal(t, []float64{0.5, 0.6}, info.Timestamps)
}

func TestReadSeries_MissingData(t *testing.T) {
	m := NewMem()
	g := m.Grp("acquisition/broken")
	g.SetAttr("neurodata_type", "CurrentClampSeries")

	_, err := ReadSeries(g)
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "data", missing.Field)
}

func TestMemReader_CloseCounting(t *testing.T) {
	m := NewMem()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 2, m.Closes)
}
