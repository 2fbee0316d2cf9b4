package pipeline

// Summary aggregates a make-data run.
type Summary struct {
	RunID     string
	Processed int
	Written   int

	SkippedMissing     int
	SkippedUnreadable  int
	SkippedStructural  int
	SkippedUnencodable int
	ZeroIncumbent      int
	ZeroPositive       int

	Records             int
	Positives           int
	DroppedObservations int
	LogParseErrors      int
	TrajParseErrors     int

	// Incumbent list lengths over every built trace, and over the traces
	// with more than one improving incumbent.
	MeanIncumbents      float64
	MeanIncumbentsMulti float64

	incumbentTotal int
	traces         int
	multiTotal     int
	multiTraces    int
}

func newSummary(runID string) *Summary {
	return &Summary{RunID: runID}
}

func (s *Summary) add(res Result) {
	s.Processed++
	switch res.Outcome {
	case Written:
		s.Written++
		s.Records += len(res.Batch.Records)
		s.Positives += res.Positives
	case Missing:
		s.SkippedMissing++
	case Unreadable:
		s.SkippedUnreadable++
	case Structural:
		s.SkippedStructural++
	case EncodeFailed:
		s.SkippedUnencodable++
	case NoIncumbent:
		s.ZeroIncumbent++
	case NoPositive:
		s.ZeroPositive++
	}
	s.DroppedObservations += res.Join.Dropped()
	s.TrajParseErrors += res.TrajErrors

	if res.Trace == nil {
		return
	}
	s.LogParseErrors += res.Trace.SkippedRecords
	if res.Outcome == Structural || res.Outcome == Unreadable {
		return
	}
	n := len(res.Trace.Incumbents)
	s.traces++
	s.incumbentTotal += n
	s.MeanIncumbents = float64(s.incumbentTotal) / float64(s.traces)
	if n > 1 {
		s.multiTraces++
		s.multiTotal += n
		s.MeanIncumbentsMulti = float64(s.multiTotal) / float64(s.multiTraces)
	}
}
