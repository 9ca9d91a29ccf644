package feed

import (
	"fmt"
	"runtime"
)

// hostDistributions maps GOOS/GOARCH to the default build flavor for that
// host. install_only_stripped builds are the smallest runnable distributions.
var hostDistributions = map[[2]string]string{
	{"linux", "amd64"}:   "x86_64_v3-unknown-linux-gnu-install_only_stripped",
	{"linux", "arm64"}:   "aarch64-unknown-linux-gnu-install_only_stripped",
	{"linux", "arm"}:     "armv7-unknown-linux-gnueabihf-install_only_stripped",
	{"darwin", "amd64"}:  "x86_64-apple-darwin-install_only_stripped",
	{"darwin", "arm64"}:  "aarch64-apple-darwin-install_only_stripped",
	{"windows", "amd64"}: "x86_64-pc-windows-msvc-shared-install_only_stripped",
	{"windows", "386"}:   "i686-pc-windows-msvc-shared-install_only_stripped",
	{"windows", "arm64"}: "aarch64-pc-windows-msvc-install_only_stripped",
}

// DetectHostDistribution returns the default distribution string for the
// current platform and architecture.
func DetectHostDistribution() (string, error) {
	d, ok := hostDistributions[[2]string{runtime.GOOS, runtime.GOARCH}]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownHost, runtime.GOOS, runtime.GOARCH)
	}
	return d, nil
}
