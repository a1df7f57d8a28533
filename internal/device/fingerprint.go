// Package device derives a stable identifier for the machine the oracle
// runs on, used to bind a license to a single installation.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
)

var (
	once   sync.Once
	cached string
)

// Fingerprint returns a 16-character identifier derived from hostname,
// platform and hardware addresses. It is stable across restarts on the
// same machine and computed once per process.
func Fingerprint() string {
	once.Do(func() {
		cached = compute()
	})
	return cached
}

func compute() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	parts := []string{hostname, runtime.GOOS, runtime.GOARCH}
	parts = append(parts, hardwareAddrs()...)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:16])
}

// hardwareAddrs returns the MAC addresses of physical-looking interfaces,
// sorted so enumeration order does not change the fingerprint.
func hardwareAddrs() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var addrs []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		// Skip container/VM bridges, which come and go.
		name := strings.ToLower(iface.Name)
		if strings.HasPrefix(name, "docker") || strings.HasPrefix(name, "veth") || strings.HasPrefix(name, "br-") {
			continue
		}
		addrs = append(addrs, iface.HardwareAddr.String())
	}
	sort.Strings(addrs)
	return addrs
}

// Describe returns a short human-readable label for support conversations,
// shown alongside the fingerprint in the license views.
func Describe() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s (%s/%s)", hostname, runtime.GOOS, runtime.GOARCH)
}
