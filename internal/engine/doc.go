// Package engine contains the Quiet Depths simulation core.
//
// The Engine owns the single EconomyState of a session. Every mutation,
// whether a player action or one of the three timer callbacks (idle income,
// event check, persist), reads the latest snapshot, computes the next one
// through a pure subsystem function and replaces it under one lock.
// Subsystems never hold state of their own.
package engine
