// Package version reports build information for mediagraph binaries.
//
// Version, commit and build time may be set at link time and otherwise
// come from the VCS stamps Go records in the binary:
//
//	go build -ldflags "-X github.com/kbukum/mediagraph/version.Version=0.3.0" ./cmd/mediaplay
package version
