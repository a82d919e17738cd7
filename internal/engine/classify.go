package engine

import "strings"

// FailureClass is the launch-failure taxonomy driving recovery.
type FailureClass int

const (
	// FailureUnknown covers everything recovery must not touch.
	FailureUnknown FailureClass = iota
	// FailureMissingDriver means the backend's driver runtime is absent
	// (only the playwright backend has one).
	FailureMissingDriver
	// FailureMissingBrowser means the backend is present but found no
	// controllable browser executable.
	FailureMissingBrowser
)

func (c FailureClass) String() string {
	switch c {
	case FailureMissingDriver:
		return "missing-driver"
	case FailureMissingBrowser:
		return "missing-browser"
	default:
		return "unknown"
	}
}

// The backends report these conditions only through free-text messages, so
// classification is substring matching. The lists are best-effort and may
// need updating when a backend changes its wording.
var (
	missingBrowserHints = []string{
		"executable doesn't exist",
		"executable file not found",
		"could not find chrome",
		"can not find the browser",
		"browser is not found",
		"distribution",
		"channel is not installed",
	}
	missingDriverHints = []string{
		"could not start driver",
		"install the driver",
		"driver not found",
		"please install playwright",
	}
)

// Classify maps a launch error onto the recovery taxonomy. Browser hints are
// checked first as they are the more specific phrasing.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range missingBrowserHints {
		if strings.Contains(msg, hint) {
			return FailureMissingBrowser
		}
	}
	for _, hint := range missingDriverHints {
		if strings.Contains(msg, hint) {
			return FailureMissingDriver
		}
	}
	return FailureUnknown
}
