// Package policy provides an optional per-action allow/block layer attached
// to a context. It is deliberately decoupled from the engine so that using
// it is entirely opt-in; callers that never attach a Policy keep every
// action enabled. A freeze window, for example, can block "pipeline.deploy"
// while leaving approvals running.
package policy
