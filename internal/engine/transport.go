package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"

	"evalgo.org/dockboard/internal/hosts"
	"evalgo.org/dockboard/internal/validation"
)

// TLS bundle file names expected in a host's cert_path.
const (
	CAFile   = "ca.pem"
	CertFile = "cert.pem"
	KeyFile  = "key.pem"
)

// New builds an adapter for cfg. The strategy follows the endpoint
// transport. Configuration problems (bad URI, incomplete TLS bundle) fail
// here as invalid arguments; network problems surface on the first call.
func New(cfg hosts.Config, opts Options) (Adapter, error) {
	opts = opts.withDefaults()

	ep, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	var (
		clientOpts []client.Opt
		closer     func() error
	)

	switch ep.Transport {
	case hosts.TransportUnix, hosts.TransportTCP:
		clientOpts = []client.Opt{client.WithHost(ep.Address)}

	case hosts.TransportTLS:
		httpClient, err := tlsHTTPClient(cfg.CertPath)
		if err != nil {
			return nil, err
		}
		clientOpts = []client.Opt{
			client.WithHTTPClient(httpClient),
			client.WithHost(ep.Address),
			client.WithScheme("https"),
		}

	case hosts.TransportSSH:
		tunnel := newSSHTunnel(ep, opts.SSH, opts.Logger.With("host_id", cfg.ID))
		clientOpts = []client.Opt{
			client.WithHTTPClient(&http.Client{Transport: &http.Transport{}}),
			client.WithHost("http://docker"),
			client.WithDialContext(tunnel.DialContext),
		}
		closer = tunnel.Close

	default:
		return nil, validation.FieldError("host", fmt.Sprintf("unsupported transport %q", ep.Transport))
	}

	clientOpts = append(clientOpts, client.WithAPIVersionNegotiation())
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, validation.FieldError("host", fmt.Sprintf("failed to create Docker client: %v", err))
	}

	opts.Logger.Debug("Created engine client",
		"host_id", cfg.ID,
		"transport", string(ep.Transport),
		"address", ep.Address)

	return &dockerAdapter{
		cli:     cli,
		timeout: opts.CallTimeout,
		closer:  closer,
	}, nil
}

// tlsHTTPClient loads the ca/cert/key bundle from dir into an HTTP client.
func tlsHTTPClient(dir string) (*http.Client, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, validation.FieldError("cert_path", "cert_path is required when tls_verify is enabled")
	}

	var missing []string
	for _, name := range []string{CAFile, CertFile, KeyFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, validation.FieldError("cert_path",
			fmt.Sprintf("TLS bundle in %s is incomplete, missing %s", dir, strings.Join(missing, ", ")))
	}

	tlsCfg, err := tlsconfig.Client(tlsconfig.Options{
		CAFile:             filepath.Join(dir, CAFile),
		CertFile:           filepath.Join(dir, CertFile),
		KeyFile:            filepath.Join(dir, KeyFile),
		ExclusiveRootPools: true,
	})
	if err != nil {
		return nil, validation.FieldError("cert_path", fmt.Sprintf("invalid TLS bundle: %v", err))
	}

	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsCfg},
	}, nil
}
