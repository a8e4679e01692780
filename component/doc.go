// Package component runs lifecycle-managed parts of a bindkit process.
//
// A Registry starts components in registration order and stops them in
// reverse, so register what others depend on first. The CLI registers the
// meter provider, the binding registries and the injection engine here to
// get a deterministic shutdown.
package component
