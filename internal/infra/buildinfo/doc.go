// Package buildinfo exposes build information for the redkv binaries.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/redkv/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/redkv/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When a field is left unset the module metadata embedded by the Go
// toolchain is used instead.
package buildinfo
