package checker

import "github.com/akarpov/castwatch/app/appcast"

type OutcomeKind string

const (
	OutcomeNoUpdate        OutcomeKind = "no_update"
	OutcomeUpdateAvailable OutcomeKind = "update_available"
	OutcomeError           OutcomeKind = "error"
)

// Outcome is the classified result of one check cycle. Entry is set only for
// OutcomeUpdateAvailable, Err only for OutcomeError.
type Outcome struct {
	Kind  OutcomeKind
	Entry *appcast.Appcast
	Err   error
}
