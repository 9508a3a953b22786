// Package model groups the domain entities of the engine: the change
// request aggregate with its artifacts and approval-step snapshot, the
// department chain configuration and the shared actor/error types.
package model
