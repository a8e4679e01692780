// Package version reports build information for bindkit binaries.
//
// Values are injected at link time and fall back to the VCS stamp recorded
// by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/bindkit/version.Version=1.2.0" ./cmd/bindkit
package version
