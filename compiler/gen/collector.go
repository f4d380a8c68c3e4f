package gen

// Collector is the append-only store of every generation error seen
// during a run. Errors are only ever appended, never mutated or
// removed, so views taken at different times only ever grow.
type Collector struct {
	errs []*GenerationError
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends an error to the collector.
func (c *Collector) Add(err *GenerationError) {
	c.errs = append(c.errs, err)
}

// All returns a copy of the collected errors in insertion order.
func (c *Collector) All() []*GenerationError {
	out := make([]*GenerationError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	return len(c.errs)
}

// CountBySeverity returns the number of errors at the given level.
func (c *Collector) CountBySeverity(s Severity) int {
	n := 0
	for _, err := range c.errs {
		if err.Severity == s {
			n++
		}
	}
	return n
}

// ByPhase returns the errors recorded by the named phase.
func (c *Collector) ByPhase(phase string) []*GenerationError {
	var out []*GenerationError
	for _, err := range c.errs {
		if err.Phase == phase {
			out = append(out, err)
		}
	}
	return out
}

// Blocking returns the subset of collected errors the policy judges
// blocking, in insertion order.
func (c *Collector) Blocking(p Policy) []*GenerationError {
	var out []*GenerationError
	for _, err := range c.errs {
		if p.IsBlocking(err) {
			out = append(out, err)
		}
	}
	return out
}

// HasCritical reports whether any error- or fatal-level diagnostic has
// been recorded. The checklist phase uses it to avoid presenting an
// all-green report for a broken build.
func (c *Collector) HasCritical() bool {
	for _, err := range c.errs {
		if err.Severity == SeverityError || err.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Summary counts collected errors per severity level.
type Summary struct {
	Warning    int `msgpack:"warning"`
	Error      int `msgpack:"error"`
	Fatal      int `msgpack:"fatal"`
	Validation int `msgpack:"validation"`
}

// Total returns the total number of counted errors.
func (s Summary) Total() int {
	return s.Warning + s.Error + s.Fatal + s.Validation
}

// Summary returns the per-severity counts of the collected errors.
func (c *Collector) Summary() Summary {
	var s Summary
	for _, err := range c.errs {
		switch err.Severity {
		case SeverityWarning:
			s.Warning++
		case SeverityError:
			s.Error++
		case SeverityFatal:
			s.Fatal++
		case SeverityValidation:
			s.Validation++
		}
	}
	return s
}
