package mailer

import (
	"errors"
	"fmt"
	"net"

	"blitiri.com.ar/go/spf"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
)

var ErrRelayNotAuthorized = errors.New("mailer: relay not authorised by SPF")

// CheckRelay looks up SPF for the domain of from and reports whether
// relayIP may send for it. Fail is an error; softfail, neutral and missing
// records are logged and allowed.
func CheckRelay(relayIP, from string) (spf.Result, error) {
	ip := net.ParseIP(relayIP)
	if ip == nil {
		return spf.None, fmt.Errorf("mailer: invalid relay IP %q", relayIP)
	}

	result, err := spf.CheckHostWithSender(ip, domainOf(from), from)
	switch result {
	case spf.Pass:
		logging.InfoLog("SPF check: relay %s authorised for %s", relayIP, domainOf(from))
		return result, nil
	case spf.Fail:
		logging.ErrorLog("SPF check: relay %s rejected for %s", relayIP, domainOf(from))
		return result, ErrRelayNotAuthorized
	}
	if err != nil {
		logging.WarnLog("SPF check error for domain=%s ip=%s: %v", domainOf(from), relayIP, err)
	} else {
		logging.WarnLog("SPF check result=%s for domain=%s ip=%s; mail may be filtered", result, domainOf(from), relayIP)
	}
	return result, nil
}
