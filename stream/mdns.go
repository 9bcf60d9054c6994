//go:build !tinygo

package stream

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

func init() { LookupService = browseMDNS }

// browseMDNS queries the local link for service (e.g. "_pcm._tcp") and
// returns the first IPv4 responder. It waits the full timeout.
func browseMDNS(service string, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(service)
	params.Domain = "local"
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var found string
	for e := range entries {
		if found == "" && e.AddrV4 != nil && e.Port > 0 {
			found = net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(e.Port))
		}
	}
	if err := <-errc; err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.New("no mdns responder for " + service)
	}
	return found, nil
}
