package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"github.com/ethpandaops/benchviz/pkg/benchlog"
	"github.com/ethpandaops/benchviz/pkg/chart"
	"github.com/go-chi/chi/v5"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// writeLookupError maps run and metric lookup failures to 404 and anything
// else to 400.
func writeLookupError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, analysis.ErrUnknownRun) || errors.Is(err, analysis.ErrUnknownMetric) {
		status = http.StatusNotFound
	}

	writeJSON(w, status, errorResponse{err.Error()})
}

// namesParam splits the comma separated "names" query parameter.
func namesParam(r *http.Request) []string {
	raw := r.URL.Query().Get("names")
	if raw == "" {
		return nil
	}

	var names []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}

	return names
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.collection().Len(),
	})
}

type runsResponse struct {
	Names     []string           `json:"names"`
	Summaries []analysis.Summary `json:"summaries"`
}

func (s *server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	runs := s.collection()

	summaries, err := analysis.Summarize(runs)
	if err != nil {
		writeLookupError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, runsResponse{
		Names:     runs.Names(),
		Summaries: summaries,
	})
}

type runDetail struct {
	Name                    string         `json:"name"`
	InitData                map[string]any `json:"init_data"`
	StartTime               *time.Time     `json:"start_time"`
	RunCompleteTime         *time.Time     `json:"run_complete_time"`
	ReportedVersionsApplied *int64         `json:"reported_versions_applied"`
	Completed               bool           `json:"completed"`
	Tables                  map[string]int `json:"tables"`
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	snapshots := 0
	if run.Snapshots != nil {
		snapshots = run.Snapshots.Len()
	}

	writeJSON(w, http.StatusOK, runDetail{
		Name:                    run.Name,
		InitData:                run.InitData,
		StartTime:               run.StartTime,
		RunCompleteTime:         run.RunCompleteTime,
		ReportedVersionsApplied: run.ReportedVersionsApplied,
		Completed:               run.Completed(),
		Tables: map[string]int{
			"versions":  run.Versions.Len(),
			"memory":    run.Memory.Len(),
			"disk":      run.Disk.Len(),
			"snapshots": snapshots,
		},
	})
}

func (s *server) handleGetRunTable(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	var rows any

	switch table := chi.URLParam(r, "table"); table {
	case "versions":
		rows = run.Versions
	case "memory":
		rows = run.Memory
	case "disk":
		rows = run.Disk
	case "snapshots":
		var snaps benchlog.Table[benchlog.SnapshotEvent]
		if run.Snapshots != nil {
			snaps = *run.Snapshots
		}

		rows = snaps
	default:
		writeJSON(w, http.StatusNotFound,
			errorResponse{"unknown table " + strconv.Quote(table)})

		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *server) lookupRun(w http.ResponseWriter, r *http.Request) (*benchlog.Run, bool) {
	name := chi.URLParam(r, "name")

	run, ok := s.collection().Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"unknown run " + strconv.Quote(name)})

		return nil, false
	}

	return run, true
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := analysis.Summarize(s.collection(), namesParam(r)...)
	if err != nil {
		writeLookupError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

type seriesResponse struct {
	Metric analysis.Metric   `json:"metric"`
	Label  string            `json:"label"`
	Series []analysis.Series `json:"series"`
}

func (s *server) handleSeries(w http.ResponseWriter, r *http.Request) {
	batch, err := s.batchParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	runs, err := analysis.Select(s.collection(), namesParam(r)...)
	if err != nil {
		writeLookupError(w, err)

		return
	}

	metric := analysis.Metric(chi.URLParam(r, "metric"))

	series, err := analysis.BuildSeries(metric, runs, batch)
	if err != nil {
		writeLookupError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, seriesResponse{
		Metric: metric,
		Label:  metric.Label(),
		Series: series,
	})
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	format := chart.FormatPNG

	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := chart.ParseFormat(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

			return
		}

		format = parsed
	}

	batch, err := s.batchParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	runs, err := analysis.Select(s.collection(), namesParam(r)...)
	if err != nil {
		writeLookupError(w, err)

		return
	}

	c, err := chart.ForMetric(analysis.Metric(chi.URLParam(r, "metric")), runs, batch)
	if errors.Is(err, chart.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})

		return
	}

	if err != nil {
		writeLookupError(w, err)

		return
	}

	var buf bytes.Buffer
	if err := c.Write(&buf, format); err != nil {
		s.log.WithError(err).Error("Failed to render chart")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	_, _ = buf.WriteTo(w)
}

// batchParam reads the "batch" query parameter, falling back to the
// configured batch size.
func (s *server) batchParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("batch")
	if raw == "" {
		return s.cfg.BatchSize, nil
	}

	batch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || batch <= 0 {
		return 0, errors.New("batch must be a positive integer")
	}

	return batch, nil
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	runs, err := s.reload(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to reload runs")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"reload failed: " + err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"runs":   runs.Len(),
	})
}
