package chart

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testRun(name string, versions int) *benchlog.Run {
	rows := make([]benchlog.VersionRow, 0, versions)
	mem := make([]benchlog.MemorySample, 0, versions)

	for v := 1; v <= versions; v++ {
		rows = append(rows, benchlog.VersionRow{Version: int64(v), Count: int64(v * 10), Duration: time.Second})
		mem = append(mem, benchlog.MemorySample{Version: int64(v), Alloc: int64(v) * 100_000_000})
	}

	return &benchlog.Run{
		Name:     name,
		Versions: benchlog.NewTable(rows),
		Memory:   benchlog.NewTable(mem),
	}
}

func TestLine_NoData(t *testing.T) {
	_, err := Line("t", "y", nil)
	require.ErrorIs(t, err, ErrNoData)

	_, err = Line("t", "y", []analysis.Series{{Name: "empty", Points: []analysis.Point{}}})
	require.ErrorIs(t, err, ErrNoData)
}

func TestChart_Write(t *testing.T) {
	c, err := Line("Ops/Sec", "Ops/Sec", []analysis.Series{
		{Name: "a", Points: []analysis.Point{{X: 1, Y: 10}, {X: 2, Y: 20}}},
		{Name: "b", Points: []analysis.Point{{X: 1, Y: 5}, {X: 2, Y: 8}}},
	})
	require.NoError(t, err)

	var png bytes.Buffer
	require.NoError(t, c.Write(&png, FormatPNG))
	assert.True(t, bytes.HasPrefix(png.Bytes(), pngMagic))

	var svg bytes.Buffer
	require.NoError(t, c.Write(&svg, FormatSVG))
	assert.Contains(t, svg.String(), "<svg")
}

func TestBar(t *testing.T) {
	_, err := Bar("t", "y", nil, nil)
	require.ErrorIs(t, err, ErrNoData)

	_, err = Bar("t", "y", []string{"a"}, []float64{1, 2})
	require.ErrorIs(t, err, ErrNoData)

	c, err := Bar("Ops/Sec", "Ops/Sec", []string{"a", "b"}, []float64{15, 30})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())
	assert.Equal(t, "image/png", FormatPNG.ContentType())

	_, err = ParseFormat("gif")
	require.Error(t, err)
}

func TestRenderAll(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := filepath.Join(t.TempDir(), "charts")
	runs := []*benchlog.Run{testRun("memiavl", 5), testRun("iavl-v1", 3)}

	rendered, err := RenderAll(log, dir, FormatPNG, runs, 2)
	require.NoError(t, err)

	names := make([]string, 0, len(rendered))
	for _, r := range rendered {
		names = append(names, r.Name)

		data, err := os.ReadFile(r.Path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), r.Path)
	}

	// No disk samples and no snapshots were logged.
	assert.Equal(t, []string{
		"summary_ops_per_sec", "summary_max_mem_gb", "summary_max_disk_gb", "ops", "memory",
	}, names)
}
