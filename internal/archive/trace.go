package archive

// Tracer records the best sigma whenever it changes. When the trace is full
// every other point is dropped and the sampling stride doubles, so a long
// run keeps its whole history at a coarser resolution.
type Tracer struct {
	points []TracePoint
	stride int64
	last   float64
	seen   bool
}

func NewTracer() *Tracer { return &Tracer{stride: 1} }

// Observe records sigma at iteration it if it differs from the last value
// and it falls on the current stride.
func (t *Tracer) Observe(it int64, sigma float64) {
	if t.seen && sigma == t.last {
		return
	}
	if len(t.points) == MaxSeries {
		t.compact()
	}
	if it%t.stride != 0 {
		return
	}
	t.seen = true
	t.last = sigma
	t.points = append(t.points, TracePoint{Iteration: it, Sigma: sigma})
}

func (t *Tracer) compact() {
	kept := t.points[:0]
	for i, p := range t.points {
		if i%2 == 0 {
			kept = append(kept, p)
		}
	}
	t.points = kept
	t.stride *= 2
}

// Points returns a copy of the recorded trace.
func (t *Tracer) Points() []TracePoint {
	return append([]TracePoint(nil), t.points...)
}
