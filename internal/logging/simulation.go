package logging

import (
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// SimulationLogger records the lifecycle of one run: parameters, periodic
// progress, a result summary and the wall-clock runtime.
type SimulationLogger struct {
	log   logr.Logger
	start time.Time
}

func NewSimulationLogger(log logr.Logger) *SimulationLogger {
	return &SimulationLogger{log: log.WithName("simulation"), start: time.Now()}
}

func (s *SimulationLogger) Logger() logr.Logger { return s.log }

func (s *SimulationLogger) LogParams(params map[string]any) {
	s.log.Info("simulation parameters", sortedPairs(params)...)
}

func (s *SimulationLogger) LogProgress(step, total int, t float64) {
	percent := 0.0
	if total > 0 {
		percent = 100 * float64(step) / float64(total)
	}
	s.log.V(DEBUG).Info("progress", "step", step, "total", total, "percent", percent, "t", t)
}

func (s *SimulationLogger) LogSummary(summary map[string]float64) {
	kv := make(map[string]any, len(summary))
	for k, v := range summary {
		kv[k] = v
	}
	s.log.Info("simulation result summary", sortedPairs(kv)...)
}

func (s *SimulationLogger) LogError(err error, msg string, keysAndValues ...any) {
	s.log.Error(err, msg, keysAndValues...)
}

// LogRuntime logs the time elapsed since the logger was created and returns it.
func (s *SimulationLogger) LogRuntime() time.Duration {
	elapsed := time.Since(s.start)
	s.log.Info("simulation runtime", "seconds", elapsed.Seconds())
	return elapsed
}

func sortedPairs(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, m[k])
	}
	return kv
}
