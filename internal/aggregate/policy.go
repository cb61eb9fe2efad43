package aggregate

import "evalgo.org/dockboard/internal/format"

// Policy decides fidelity and stats timing from the dashboard settings.
type Policy struct {
	// EnableStats allows full fidelity at all.
	EnableStats bool
	// FastInitialLoad serves fast fidelity unless full is requested.
	FastInitialLoad bool
	// SkipInitialStats defers stats in full fidelity to the polling endpoints.
	SkipInitialStats bool
}

// Options resolves a requested fidelity. An empty request takes the
// default; full is downgraded to fast when stats are disabled.
func (p Policy) Options(requested format.Fidelity) Options {
	fidelity := requested
	if fidelity == "" {
		fidelity = format.Fast
		if p.EnableStats && !p.FastInitialLoad {
			fidelity = format.Full
		}
	}
	if !p.EnableStats {
		fidelity = format.Fast
	}
	return Options{
		Fidelity:   fidelity,
		DeferStats: fidelity == format.Full && p.SkipInitialStats,
	}
}
