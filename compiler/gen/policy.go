package gen

// Policy is the single escalation decision point of the pipeline.
// Every call site that decides whether an error aborts the run goes
// through one Policy value; the decision table is never re-derived
// elsewhere. GenerationError deliberately carries no decision method
// of its own.
type Policy struct{}

// ShouldAbort reports whether err must stop the run immediately under
// the given configuration. Decision order:
//
//  1. validation errors always abort
//  2. fatal errors always abort
//  3. BlocksGeneration always aborts, independent of severity
//  4. error-level aborts iff FailFast or not ContinueOnError
//  5. warnings never abort
func (Policy) ShouldAbort(err *GenerationError, cfg *Config) bool {
	switch {
	case err.Severity == SeverityValidation:
		return true
	case err.Severity == SeverityFatal:
		return true
	case err.BlocksGeneration:
		return true
	case err.Severity == SeverityError:
		return cfg.ErrorHandling.FailFast || !cfg.ErrorHandling.ContinueOnError
	default:
		return false
	}
}

// IsBlocking reports whether err prevents a valid final artifact,
// regardless of configuration.
func (Policy) IsBlocking(err *GenerationError) bool {
	return err.Severity == SeverityValidation ||
		err.Severity == SeverityFatal ||
		err.BlocksGeneration
}

// HasBlockingErrors reports whether the list contains at least one
// blocking error.
func (p Policy) HasBlockingErrors(errs []*GenerationError) bool {
	for _, err := range errs {
		if p.IsBlocking(err) {
			return true
		}
	}
	return false
}

// HighestSeverity returns the most severe level present in the list.
// The second return value is false for an empty list.
func (Policy) HighestSeverity(errs []*GenerationError) (Severity, bool) {
	if len(errs) == 0 {
		return 0, false
	}
	highest := errs[0].Severity
	for _, err := range errs[1:] {
		if err.Severity > highest {
			highest = err.Severity
		}
	}
	return highest, true
}
