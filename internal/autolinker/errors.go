package autolinker

import "errors"

var (
	// ErrBandChanged is returned by AutoLinkHigh when the candidate's band
	// is no longer HIGH under the re-check performed inside the
	// transaction (spec §4.4: "if the band has changed under concurrent
	// update, the transaction aborts and the work item is rerouted").
	ErrBandChanged = errors.New("candidate band changed since classification, rerouting")

	// ErrEmptyStatement guards create_new_concept against an empty
	// canonical statement.
	ErrEmptyStatement = errors.New("mention statement is empty")

	// ErrAlreadyLinked is returned when a mention already carries a
	// concept_id pointing somewhere other than the call's target: a
	// conflicting re-link, not a harmless retry (spec §8 L3: "resolve is
	// idempotent ... no double-linking, no counter drift").
	ErrAlreadyLinked = errors.New("mention is already linked to a different concept")
)
