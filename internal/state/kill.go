package state

import "os"

/*
IsKillRequested reports whether a cancellation has been requested for the
step. The flag carries no payload; its presence is the entire signal.

Steps poll this between units of work and stop early on true. Detection does
not interrupt anything already blocking (an in-flight model call finishes);
polling between blocking operations is the contract. The check never deletes
the flag and fails safe toward "not cancelled": a stat error other than
not-exist is logged and reported as false, because advisory cancellation must
never crash the step it advises.
*/
func (s *Store) IsKillRequested(step int) bool {
	if s == nil {
		return false
	}
	_, err := os.Stat(s.KillFlagPath(step))
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		s.warn("Kill flag check failed", "step", step, "path", s.KillFlagPath(step), "error", err)
	}
	return false
}

// RequestKill creates the kill flag for a step. This is the external-actor
// side of the protocol (operator CLI, UI backend); unlike the step-facing
// operations it surfaces errors, since the operator needs to know whether
// the request landed.
func (s *Store) RequestKill(step int) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.KillFlagPath(step), nil, 0o644)
}

// ClearKill removes a step's kill flag. Flag cleanup belongs to whoever
// requested the cancellation, never to the step being cancelled. An absent
// flag is not an error.
func (s *Store) ClearKill(step int) error {
	err := os.Remove(s.KillFlagPath(step))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
