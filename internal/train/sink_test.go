package train

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLSinkWritesOneLinePerObservation(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	sink.Log(map[string]float64{"batch train loss": 0.5})
	sink.Log(map[string]float64{"train loss": 0.4, "epoch": 0})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]float64
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 0.5, first["batch train loss"])

	var second map[string]float64
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, 0.4, second["train loss"])
	assert.Equal(t, 0.0, second["epoch"])
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	MultiSink{a, b}.Log(map[string]float64{"x": 1})

	assert.Len(t, a.logs, 1)
	assert.Len(t, b.logs, 1)
}
