// Package core defines the domain contracts shared by every other package:
// the role-based Content/Part message model, the per-turn conversation State
// with its explicit merge reducers, and the SessionStore interface binding a
// session's active entity id and append-only message log across turns.
// Concrete storage backends live in the session package; keeping only the
// contracts here prevents higher layers from depending on storage details.
package core
