package es8388

import "errors"

// Status is the aggregate outcome of bring-up.
type Status uint8

const (
	StatusOK Status = iota
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	default:
		return "failed"
	}
}

// Step is the result of one bring-up action. Bus setup steps have Phase
// PhaseNone and a zero register.
type Step struct {
	Name  string
	Phase Phase
	Reg   byte
	Value byte
	Err   error
}

func (s Step) OK() bool      { return s.Err == nil }
func (s Step) IsWrite() bool { return s.Phase != PhaseNone }

// Report collects every bring-up step in execution order.
type Report struct {
	Steps []Step
}

func (r *Report) add(s Step) { r.Steps = append(r.Steps, s) }

// Writes counts register-write steps by outcome.
func (r *Report) Writes() (ok, failed int) {
	for _, s := range r.Steps {
		if !s.IsWrite() {
			continue
		}
		if s.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// Failed returns the failing steps.
func (r *Report) Failed() []Step {
	var out []Step
	for _, s := range r.Steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Status is ok when nothing failed, failed when no register write
// succeeded, and partial otherwise.
func (r *Report) Status() Status {
	ok, _ := r.Writes()
	if len(r.Failed()) == 0 {
		return StatusOK
	}
	if ok == 0 {
		return StatusFailed
	}
	return StatusPartial
}

// Err joins all step errors; nil when the status is ok.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}
