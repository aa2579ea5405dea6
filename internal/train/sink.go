package train

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// MetricSink receives numeric observations from the training loop. Calls
// are fire-and-forget: sinks must not block the loop and have no way to
// report failure back to it.
type MetricSink interface {
	Log(values map[string]float64)
}

// NopSink discards all observations.
type NopSink struct{}

func (NopSink) Log(map[string]float64) {}

// ZapSink emits each observation as a structured log record.
type ZapSink struct {
	Logger *zap.Logger
}

func (s ZapSink) Log(values map[string]float64) {
	fields := make([]zap.Field, 0, len(values))
	for k, v := range values {
		fields = append(fields, zap.Float64(k, v))
	}
	s.Logger.Info("metrics", fields...)
}

// JSONLSink writes each observation as one JSON object per line. Write
// errors are dropped.
type JSONLSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) Log(values map[string]float64) {
	line, err := json.Marshal(values)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(append(line, '\n'))
}

// MultiSink fans each observation out to every sink.
type MultiSink []MetricSink

func (s MultiSink) Log(values map[string]float64) {
	for _, sink := range s {
		sink.Log(values)
	}
}
