package config

import "time"

// Runtime is a live view of the mutable engine settings. Every method
// reads the backing store on each call, so toggles applied through the
// admin API or a config file reload take effect for pipelines that are
// already in flight.
type Runtime struct{}

// AutoReply reports whether computed responses should be published.
func (Runtime) AutoReply() bool {
	return GetBool("engine.auto_reply")
}

// ListenTag returns the listen-only tag, empty when disabled.
func (Runtime) ListenTag() string {
	return GetString("engine.listen_only_tag")
}

// HistoryDepth returns how many stored events feed the dispatch context.
func (Runtime) HistoryDepth() int {
	n := GetInt("engine.history_depth")
	if n <= 0 {
		return DefaultHistoryDepth
	}
	return n
}

// DispatchTimeout returns the deadline for a single responder invocation.
func (Runtime) DispatchTimeout() time.Duration {
	d := GetDuration("engine.dispatch_timeout")
	if d <= 0 {
		return DefaultDispatchTimeout
	}
	return d
}

// Reactions returns the marker emoji names for the three pipeline states.
func (Runtime) Reactions() (thinking, done, failed string) {
	thinking = GetString("engine.reaction_thinking")
	done = GetString("engine.reaction_done")
	failed = GetString("engine.reaction_error")
	return
}

// ValidateCredentials checks the workspace tokens.
func (Runtime) ValidateCredentials() error {
	return ValidateCredentials()
}
