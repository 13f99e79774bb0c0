package harness

// CaseResult is the outcome of one suite case.
type CaseResult struct {
	Name  string `json:"name"`
	Query string `json:"query"`

	// RequestID is the content ID of the compiled request, empty when the
	// query did not compile.
	RequestID string `json:"request_id,omitempty"`

	// Expected is the verdict the case asked for.
	Expected bool `json:"expected"`

	// Equivalent is the verdict the comparator reached.
	Equivalent bool `json:"equivalent"`

	Mismatches []string `json:"mismatches,omitempty"`
	Uncovered  []string `json:"uncovered,omitempty"`

	// Err is set when the case could not be evaluated.
	Err error `json:"-"`
}

// Passed reports whether the verdict matched and no error occurred.
func (c CaseResult) Passed() bool {
	return c.Err == nil && c.Equivalent == c.Expected
}

// Result is the outcome of running a suite.
type Result struct {
	Suite   string       `json:"suite"`
	SuiteID string       `json:"suite_id,omitempty"`
	Cases   []CaseResult `json:"cases"`
}

// Passed counts passing cases.
func (r *Result) Passed() int {
	n := 0
	for _, c := range r.Cases {
		if c.Passed() {
			n++
		}
	}
	return n
}

// Failed counts failing cases.
func (r *Result) Failed() int {
	return len(r.Cases) - r.Passed()
}

// OK reports whether every case passed.
func (r *Result) OK() bool {
	return r.Failed() == 0
}

// Failures returns an error per failing case, in case order.
func (r *Result) Failures() []error {
	var errs []error
	for _, c := range r.Cases {
		if err := checkCase(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
