package precheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"go.uber.org/zap"
)

const (
	DefaultVPNCommand = "tailscale"

	tailscaleStopped = "Tailscale is stopped"

	dnsTimeout = 5 * time.Second
	vpnTimeout = 5 * time.Second
)

var ErrVPNStopped = errors.New("VPN is stopped")

// Runner runs a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// VPN asks the VPN client for its status. Only an explicit "stopped" answer
// fails the check; a missing client or any other error is logged and
// ignored.
func VPN(logger *zap.SugaredLogger, command string, run Runner) healthcheck.Checker {
	if command == "" {
		command = DefaultVPNCommand
	}
	if run == nil {
		run = execRunner
	}

	return healthcheck.CheckerFunc(
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, vpnTimeout)
			defer cancel()

			output, err := run(ctx, command, "status")
			if strings.Contains(string(output), tailscaleStopped) {
				return ErrVPNStopped
			}

			switch {
			case errors.Is(err, exec.ErrNotFound):
				logger.Debugf("VPN client %s not found, skipping VPN status check", command)
			case err != nil:
				logger.Warnf("Unable to determine VPN status, continuing: %s", err)
			}

			return nil
		},
	)
}

type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNS resolves host, which fails when private names are not reachable.
func DNS(host string, resolver Resolver) healthcheck.Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	return healthcheck.CheckerFunc(
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
			defer cancel()

			addrs, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return fmt.Errorf("unable to resolve %s: %w", host, err)
			}
			if len(addrs) == 0 {
				return fmt.Errorf("unable to resolve %s: no addresses", host)
			}

			return nil
		},
	)
}
