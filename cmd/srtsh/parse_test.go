package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/srtsock"
)

func TestParseEvents(t *testing.T) {
	tests := []struct {
		in      string
		want    srtsock.EpollFlag
		wantErr bool
	}{
		{in: "in", want: srtsock.EpollIn},
		{in: "in,err", want: srtsock.EpollIn | srtsock.EpollErr},
		{in: " OUT , et ", want: srtsock.EpollOut | srtsock.EpollET},
		{in: "", wantErr: true},
		{in: "in,bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseEvents(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseOptionValue(t *testing.T) {
	latency, err := lookupOption("latency")
	require.NoError(t, err)
	v, err := parseOptionValue(latency, "250")
	require.NoError(t, err)
	assert.Equal(t, srtsock.KindInt32, v.Kind())
	assert.Equal(t, int32(250), v.Int32())

	_, err = parseOptionValue(latency, "fast")
	assert.Error(t, err)

	maxbw, err := lookupOption("maxbw")
	require.NoError(t, err)
	v, err = parseOptionValue(maxbw, "0x10000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), v.Int64())

	rcvsyn, err := lookupOption("RCVSYN")
	require.NoError(t, err)
	v, err = parseOptionValue(rcvsyn, "false")
	require.NoError(t, err)
	assert.Equal(t, srtsock.KindBool, v.Kind())
	assert.False(t, v.Bool())

	streamid, err := lookupOption("streamid")
	require.NoError(t, err)
	v, err = parseOptionValue(streamid, "live/cam1")
	require.NoError(t, err)
	assert.Equal(t, "live/cam1", v.Text())
}

func TestLookupOptionByID(t *testing.T) {
	d, err := lookupOption("49")
	require.NoError(t, err)
	assert.Equal(t, srtsock.OptPayloadSize, d.ID)

	_, err = lookupOption("nosuchoption")
	assert.Error(t, err)
}

func TestRenderOptionsListsEveryOption(t *testing.T) {
	out := renderOptions(srtsock.OptionTable())
	for _, d := range srtsock.OptionTable() {
		assert.Contains(t, out, d.Name)
	}
}
