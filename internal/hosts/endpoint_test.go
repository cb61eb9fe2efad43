package hosts

import (
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		tls  bool
		want Endpoint
	}{
		{
			name: "unix socket",
			uri:  "unix:///var/run/docker.sock",
			want: Endpoint{Transport: TransportUnix, Address: "unix:///var/run/docker.sock", SocketPath: "/var/run/docker.sock"},
		},
		{
			name: "bare socket path",
			uri:  "/run/user/1000/docker.sock",
			want: Endpoint{Transport: TransportUnix, Address: "unix:///run/user/1000/docker.sock", SocketPath: "/run/user/1000/docker.sock"},
		},
		{
			name: "plain tcp default port",
			uri:  "tcp://192.168.1.10",
			want: Endpoint{Transport: TransportTCP, Address: "tcp://192.168.1.10:2375", Hostname: "192.168.1.10", Port: "2375"},
		},
		{
			name: "tls tcp",
			uri:  "tcp://docker.example.com:2376",
			tls:  true,
			want: Endpoint{Transport: TransportTLS, Address: "tcp://docker.example.com:2376", Hostname: "docker.example.com", Port: "2376"},
		},
		{
			name: "tls default port",
			uri:  "tcp://docker.example.com",
			tls:  true,
			want: Endpoint{Transport: TransportTLS, Address: "tcp://docker.example.com:2376", Hostname: "docker.example.com", Port: "2376"},
		},
		{
			name: "ssh with user and port",
			uri:  "ssh://ops@edge:2222",
			want: Endpoint{Transport: TransportSSH, Address: "ssh://ops@edge:2222", Hostname: "edge", Port: "2222", User: "ops", SocketPath: DefaultRemoteSocket},
		},
		{
			name: "ssh custom socket",
			uri:  "ssh://edge/run/docker.sock",
			want: Endpoint{Transport: TransportSSH, Address: "ssh://edge/run/docker.sock", Hostname: "edge", SocketPath: "/run/docker.sock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.uri, tt.tls)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEndpoint_Invalid(t *testing.T) {
	for _, uri := range []string{"", "http://host", "tcp://", "ssh://", "unix://", "npipe:////./pipe/docker_engine"} {
		t.Run(uri, func(t *testing.T) {
			_, err := ParseEndpoint(uri, false)
			require.Error(t, err)
			assert.True(t, cerrdefs.IsInvalidArgument(err))
		})
	}
}

func TestEndpoint_LinkHost(t *testing.T) {
	unix, err := ParseEndpoint(LocalSocket, false)
	require.NoError(t, err)
	assert.Empty(t, unix.LinkHost())

	tcp, err := ParseEndpoint("tcp://10.1.2.3:2375", false)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", tcp.LinkHost())

	ssh, err := ParseEndpoint("ssh://me@nas.lan", false)
	require.NoError(t, err)
	assert.Equal(t, "nas.lan", ssh.LinkHost())
}
