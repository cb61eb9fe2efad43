package hosts

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"evalgo.org/dockboard/internal/validation"
)

// Transport identifies how an engine endpoint is reached.
type Transport string

const (
	TransportUnix Transport = "unix"
	TransportTCP  Transport = "tcp"
	TransportTLS  Transport = "tls"
	TransportSSH  Transport = "ssh"
)

// DefaultRemoteSocket is the engine socket tunnelled through ssh when the
// URI carries no path.
const DefaultRemoteSocket = "/var/run/docker.sock"

const (
	defaultTCPPort = "2375"
	defaultTLSPort = "2376"
)

// Endpoint is the parsed form of a connection URI.
type Endpoint struct {
	Transport Transport
	// Address is the normalized URI handed to the engine client
	// (unix:///path or tcp://host:port). For ssh it is the ssh URI itself.
	Address    string
	Hostname   string
	Port       string
	User       string
	SocketPath string
}

// LinkHost returns the host name container links should point at. Local
// sockets yield an empty string so callers fall back to their base URL.
func (e Endpoint) LinkHost() string {
	if e.Transport == TransportUnix {
		return ""
	}
	return e.Hostname
}

// ParseEndpoint validates a connection URI and selects its transport. tcp
// URIs become TLS endpoints when tlsVerify is set.
func ParseEndpoint(uri string, tlsVerify bool) (Endpoint, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Endpoint{}, validation.FieldError("host", "host is required")
	}
	if strings.HasPrefix(uri, "/") {
		uri = "unix://" + uri
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Endpoint{}, validation.FieldError("host", fmt.Sprintf("malformed connection URI %q", uri))
	}

	switch strings.ToLower(u.Scheme) {
	case "unix":
		path := u.Path
		if path == "" {
			// unix://var/run/docker.sock puts the first segment in Host
			path = "/" + strings.TrimPrefix(u.Host+u.Path, "/")
		}
		if path == "/" {
			return Endpoint{}, validation.FieldError("host", "unix socket path is required")
		}
		return Endpoint{Transport: TransportUnix, Address: "unix://" + path, SocketPath: path}, nil

	case "tcp":
		hostname := u.Hostname()
		if hostname == "" {
			return Endpoint{}, validation.FieldError("host", "tcp endpoint requires a host name")
		}
		transport, port := TransportTCP, u.Port()
		if tlsVerify {
			transport = TransportTLS
		}
		if port == "" {
			port = defaultTCPPort
			if tlsVerify {
				port = defaultTLSPort
			}
		}
		return Endpoint{
			Transport: transport,
			Address:   "tcp://" + net.JoinHostPort(hostname, port),
			Hostname:  hostname,
			Port:      port,
		}, nil

	case "ssh":
		hostname := u.Hostname()
		if hostname == "" {
			return Endpoint{}, validation.FieldError("host", "ssh endpoint requires a host name")
		}
		socket := u.Path
		if socket == "" || socket == "/" {
			socket = DefaultRemoteSocket
		}
		return Endpoint{
			Transport:  TransportSSH,
			Address:    uri,
			Hostname:   hostname,
			Port:       u.Port(),
			User:       u.User.Username(),
			SocketPath: socket,
		}, nil

	default:
		return Endpoint{}, validation.FieldError("host",
			fmt.Sprintf("unsupported scheme %q (use unix://, tcp:// or ssh://)", u.Scheme))
	}
}
