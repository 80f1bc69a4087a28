// Package session houses concrete implementations of core.SessionStore.
// The interface itself lives in core to centralize domain contracts; keeping
// only implementations here prevents the engine from depending on concrete
// storage. The sqlite subpackage adds a durable backend; additional backends
// can be added in subpackages without changing any calling code.
package session
