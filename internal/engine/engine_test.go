package engine

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/dockboard/internal/hosts"
	"evalgo.org/dockboard/internal/validation"
)

// fakeDaemon answers the handful of engine API routes the adapter uses.
func fakeDaemon(t *testing.T, slow string) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if slow != "" && strings.HasSuffix(path, slow) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}

		switch {
		case strings.HasSuffix(path, "/_ping"):
			w.Header().Set("Api-Version", "1.45")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case strings.HasSuffix(path, "/version"):
			writeJSON(w, 200, map[string]any{"Version": "27.3.1", "ApiVersion": "1.45", "Os": "linux", "Arch": "amd64"})
		case strings.HasSuffix(path, "/info"):
			writeJSON(w, 200, map[string]any{"Name": "box", "OperatingSystem": "Debian GNU/Linux 12", "Architecture": "x86_64", "Containers": 2, "Images": 3})
		case strings.HasSuffix(path, "/containers/json"):
			writeJSON(w, 200, []map[string]any{
				{
					"Id": "aaaaaaaaaaaaaaaa", "Names": []string{"/web"}, "Image": "nginx", "State": "running",
					"Status": "Up 1 hour", "Created": 1700000000,
					"Ports":  []map[string]any{{"IP": "0.0.0.0", "PrivatePort": 80, "PublicPort": 8080, "Type": "tcp"}},
					"Labels":  map[string]string{"PORT": "80"},
					"ImageID": "sha256:1",
					"Mounts": []map[string]any{
						{"Type": "volume", "Name": "webdata"},
						{"Type": "bind", "Source": "/srv/www"},
					},
					"NetworkSettings": map[string]any{"Networks": map[string]any{"frontend": map[string]any{}, "bridge": map[string]any{}}},
				},
				{"Id": "bbbbbbbbbbbbbbbb", "Names": []string{"/db"}, "Image": "postgres", "State": "exited", "Status": "Exited (0)", "Created": 1700000000},
			})
		case strings.HasSuffix(path, "/containers/missing/json"):
			writeJSON(w, 404, map[string]string{"message": "No such container: missing"})
		case strings.HasSuffix(path, "/containers/aaaaaaaaaaaaaaaa/json"):
			writeJSON(w, 200, map[string]any{
				"Id": "aaaaaaaaaaaaaaaa", "Name": "/web", "Created": "2024-05-01T10:00:00.123456789Z",
				"State":      map[string]any{"Status": "running", "Health": map[string]any{"Status": "healthy"}},
				"HostConfig": map[string]any{"RestartPolicy": map[string]any{"Name": "always"}, "NetworkMode": "bridge"},
				"Config":     map[string]any{"Image": "nginx", "Env": []string{"A=1"}, "Cmd": []string{"nginx", "-g", "daemon off;"}},
				"NetworkSettings": map[string]any{
					"Networks": map[string]any{"frontend": map[string]any{"IPAddress": "172.18.0.2"}, "bridge": map[string]any{"IPAddress": "172.17.0.2"}},
					"Ports":    map[string]any{"443/tcp": nil, "80/tcp": []map[string]string{{"HostIp": "0.0.0.0", "HostPort": "8080"}}},
				},
			})
		case strings.HasSuffix(path, "/stats"):
			writeJSON(w, 200, map[string]any{
				"cpu_stats":    map[string]any{"cpu_usage": map[string]any{"total_usage": 300000000}, "system_cpu_usage": 20000000000, "online_cpus": 4},
				"precpu_stats": map[string]any{"cpu_usage": map[string]any{"total_usage": 100000000}, "system_cpu_usage": 10000000000},
				"memory_stats": map[string]any{"usage": 47396659, "limit": 1073741824},
				"name":         "/web",
			})
		case strings.HasSuffix(path, "/images/json"):
			writeJSON(w, 200, []map[string]any{
				{"Id": "sha256:1", "Size": 100, "RepoTags": []string{"nginx:latest"}, "Created": 1700000000},
				{"Id": "sha256:2", "Size": 50, "Created": 1700000000},
			})
		case strings.HasSuffix(path, "/volumes"):
			writeJSON(w, 200, map[string]any{"Volumes": []map[string]any{
				{"Name": "webdata", "Driver": "local", "CreatedAt": "2024-05-01T10:00:00Z"},
			}})
		case strings.HasSuffix(path, "/networks"):
			writeJSON(w, 200, []map[string]any{
				{"Id": "n1", "Name": "frontend", "Driver": "bridge", "Created": "2024-05-01T10:00:00Z"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func adapterFor(t *testing.T, srv *httptest.Server, timeout time.Duration) Adapter {
	t.Helper()
	cfg := hosts.Config{ID: "test", Name: "test", ConnectionURI: "tcp://" + srv.Listener.Addr().String()}
	a, err := New(cfg, Options{CallTimeout: timeout})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestDockerAdapter(t *testing.T) {
	a := adapterFor(t, fakeDaemon(t, ""), 5*time.Second)
	ctx := context.Background()

	info, err := a.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Info{Name: "box", EngineVersion: "27.3.1", APIVersion: "1.45", OS: "Debian GNU/Linux 12", Architecture: "x86_64", Containers: 2, Images: 3}, info)

	list, err := a.ListContainers(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "web", list[0].Name)
	assert.Equal(t, "running", list[0].State)
	assert.Equal(t, []Port{{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"}}, list[0].Ports)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), list[0].Created)
	assert.Equal(t, "db", list[1].Name)
	assert.Equal(t, "sha256:1", list[0].ImageID)
	assert.Equal(t, []string{"webdata"}, list[0].Volumes)
	assert.Equal(t, []string{"bridge", "frontend"}, list[0].NetworkNames)
	assert.Empty(t, list[1].Volumes)

	d, err := a.Inspect(ctx, "aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "web", d.Name)
	assert.Equal(t, "healthy", d.Health)
	assert.Equal(t, "always", d.RestartPolicy)
	assert.Equal(t, "bridge", d.NetworkMode)
	assert.Equal(t, "nginx -g daemon off;", d.Command)
	assert.Equal(t, []Network{{Name: "bridge", IP: "172.17.0.2"}, {Name: "frontend", IP: "172.18.0.2"}}, d.Networks)
	assert.Equal(t, []Port{{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"}, {PrivatePort: 443, Type: "tcp"}}, d.Ports)

	s, err := a.Stats(ctx, "aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, &Stats{Name: "web", MemoryUsage: 47396659, MemoryLimit: 1073741824, CPUDelta: 200000000, SystemDelta: 10000000000, OnlineCPUs: 4}, s)

	imgs, err := a.ListImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, imgs.Count)
	assert.Equal(t, int64(150), imgs.Size)
	created := time.Unix(1700000000, 0).UTC()
	assert.Equal(t, []Image{
		{ID: "sha256:1", Tags: []string{"nginx:latest"}, Size: 100, Created: created},
		{ID: "sha256:2", Size: 50, Created: created},
	}, imgs.Items)

	vols, err := a.ListVolumes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Volume{{Name: "webdata", Driver: "local", CreatedAt: "2024-05-01T10:00:00Z"}}, vols)

	nets, err := a.ListNetworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []NetworkInfo{{ID: "n1", Name: "frontend", Driver: "bridge", Created: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}}, nets)
}

func TestDockerAdapter_InspectNotFound(t *testing.T) {
	a := adapterFor(t, fakeDaemon(t, ""), 5*time.Second)

	_, err := a.Inspect(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, cerrdefs.IsNotFound(err))
}

func TestDockerAdapter_CallTimeout(t *testing.T) {
	a := adapterFor(t, fakeDaemon(t, "/version"), 100*time.Millisecond)

	start := time.Now()
	_, err := a.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, cerrdefs.IsDeadlineExceeded(err))
	assert.Equal(t, KindTimeout, Kind(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDockerAdapter_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	a, err := New(hosts.Config{ID: "gone", Name: "gone", ConnectionURI: "tcp://" + addr}, Options{CallTimeout: 2 * time.Second})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, cerrdefs.IsUnavailable(err))
	assert.Equal(t, KindUnreachable, Kind(err))
	assert.NotEmpty(t, Suggestion(err))
}

func TestNew_TransportSelection(t *testing.T) {
	for _, uri := range []string{"unix:///var/run/docker.sock", "/var/run/docker.sock", "tcp://10.0.0.1:2375", "ssh://ops@edge"} {
		t.Run(uri, func(t *testing.T) {
			a, err := New(hosts.Config{ID: "x", Name: "x", ConnectionURI: uri}, DefaultOptions())
			require.NoError(t, err, "building an adapter must not dial")
			assert.NoError(t, a.Close())
		})
	}

	_, err := New(hosts.Config{ID: "x", Name: "x", ConnectionURI: "http://nope"}, DefaultOptions())
	assert.True(t, cerrdefs.IsInvalidArgument(err))
}

func TestNew_TLSBundle(t *testing.T) {
	tlsHost := func(dir string) hosts.Config {
		return hosts.Config{ID: "secure", Name: "secure", ConnectionURI: "tcp://docker.example.com:2376", TLSVerify: true, CertPath: dir}
	}

	t.Run("missing cert path", func(t *testing.T) {
		_, err := New(tlsHost(""), DefaultOptions())
		require.Error(t, err)
		assert.True(t, cerrdefs.IsInvalidArgument(err))
		assert.Equal(t, KindInvalidConfig, Kind(err))
	})

	t.Run("incomplete bundle", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, CAFile), []byte("x"), 0o600))

		_, err := New(tlsHost(dir), DefaultOptions())
		require.Error(t, err)
		assert.True(t, cerrdefs.IsInvalidArgument(err))

		var inputErr *validation.InputError
		require.True(t, errors.As(err, &inputErr))
		assert.Contains(t, inputErr.Fields["cert_path"], "cert.pem, key.pem")
	})

	t.Run("garbage bundle", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{CAFile, CertFile, KeyFile} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("not pem"), 0o600))
		}
		_, err := New(tlsHost(dir), DefaultOptions())
		assert.True(t, cerrdefs.IsInvalidArgument(err))
	})

	t.Run("valid bundle", func(t *testing.T) {
		dir := t.TempDir()
		writeSelfSignedBundle(t, dir)

		a, err := New(tlsHost(dir), DefaultOptions())
		require.NoError(t, err)
		assert.NoError(t, a.Close())
	})
}

func writeSelfSignedBundle(t *testing.T, dir string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "dockboard-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	require.NoError(t, os.WriteFile(filepath.Join(dir, CAFile), certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, CertFile), certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFile), keyPEM, 0o600))
}

func TestSuggestion(t *testing.T) {
	tests := []struct {
		err  string
		want string
	}{
		{"dial tcp 10.0.0.1:2375: connect: connection refused", "Docker daemon may not be running or the port may be incorrect"},
		{"Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?", "Docker daemon may not be running or the port may be incorrect"},
		{"i/o timeout", "Network connectivity issue or Docker daemon is not responding"},
		{"dial unix /var/run/docker.sock: connect: permission denied", "Check Docker socket permissions or TLS certificate configuration"},
		{"dial unix /nope.sock: connect: no such file or directory", "Docker socket path may be incorrect"},
		{"x509: certificate signed by unknown authority", "Check TLS certificate configuration and paths"},
		{"something odd", "Check Docker daemon configuration and network connectivity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Suggestion(errors.New(tt.err)), tt.err)
	}
	assert.Empty(t, Suggestion(nil))
}

func TestKind(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	assert.Equal(t, KindTimeout, Kind(classify(ctx, "ping", ctx.Err())))
	assert.Equal(t, KindUnreachable, Kind(classify(context.Background(), "ping", errors.New("boom"))))
	assert.Equal(t, KindInvalidConfig, Kind(validation.FieldError("host", "bad")))
}

func TestClassify_Classes(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-expired.Done()

	canceled, stop := context.WithCancel(context.Background())
	stop()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		is   func(error) bool
	}{
		{"call deadline", expired, expired.Err(), cerrdefs.IsDeadlineExceeded},
		{"wrapped deadline", context.Background(), fmt.Errorf("read: %w", context.DeadlineExceeded), cerrdefs.IsDeadlineExceeded},
		{"canceled", canceled, canceled.Err(), cerrdefs.IsCanceled},
		{"not found", context.Background(), fmt.Errorf("no such container: %w", cerrdefs.ErrNotFound), cerrdefs.IsNotFound},
		{"invalid argument", context.Background(), fmt.Errorf("bad: %w", cerrdefs.ErrInvalidArgument), cerrdefs.IsInvalidArgument},
		{"other", context.Background(), errors.New("connection refused"), cerrdefs.IsUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(classify(tt.ctx, "ping", tt.err)))
		})
	}

	err := classify(expired, "ping", expired.Err())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, Kind(err))
}

func TestClassify_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := classify(context.Background(), "list containers", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, cerrdefs.IsUnavailable(err))
	assert.Equal(t, "list containers: boom", err.Error())
	assert.Same(t, err, classify(context.Background(), "again", err))
}
