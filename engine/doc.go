// Package engine implements the conversational orchestration loop: decide
// with the model, execute requested tools, feed results back, repeat until a
// plain text answer (or a safety bound) ends the turn. The loop is an
// explicit three-state machine so every transition is observable and bounded.
package engine
