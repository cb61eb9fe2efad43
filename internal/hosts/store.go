package hosts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

// fileEntry is one host as stored under its id key in the registry file.
type fileEntry struct {
	Name        string `json:"name"`
	Host        string `json:"host"`
	TLSVerify   bool   `json:"tls_verify"`
	CertPath    string `json:"cert_path,omitempty"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
}

func entryOf(c Config) fileEntry {
	return fileEntry{
		Name:        c.Name,
		Host:        c.ConnectionURI,
		TLSVerify:   c.TLSVerify,
		CertPath:    c.CertPath,
		Description: c.Description,
		Default:     c.IsDefault,
	}
}

func (e fileEntry) config(id string) Config {
	return Config{
		ID:            id,
		Name:          e.Name,
		ConnectionURI: e.Host,
		TLSVerify:     e.TLSVerify,
		CertPath:      e.CertPath,
		Description:   e.Description,
		IsDefault:     e.Default,
	}
}

// snapshot is the registry state written to and read from disk.
type snapshot struct {
	hosts   []Config
	current string
}

// readSnapshot loads the registry file. A missing file yields an empty
// snapshot.
func readSnapshot(path string) (snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot{}, nil
	}
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return snapshot{}, nil
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return snap, nil
}

// decodeSnapshot walks the hosts object token by token so the file order
// becomes the registry order.
func decodeSnapshot(data []byte) (snapshot, error) {
	var raw struct {
		Hosts   json.RawMessage `json:"hosts"`
		Current string          `json:"current_host"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return snapshot{}, err
	}

	snap := snapshot{current: raw.Current}
	if len(raw.Hosts) == 0 || string(raw.Hosts) == "null" {
		return snap, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Hosts))
	tok, err := dec.Token()
	if err != nil {
		return snapshot{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return snapshot{}, errors.New(`"hosts" must be an object keyed by host id`)
	}

	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return snapshot{}, err
		}
		id, _ := tok.(string)

		var entry fileEntry
		if err := dec.Decode(&entry); err != nil {
			return snapshot{}, fmt.Errorf("host %q: %w", id, err)
		}

		if i, dup := index[id]; dup {
			snap.hosts[i] = entry.config(id)
			continue
		}
		index[id] = len(snap.hosts)
		snap.hosts = append(snap.hosts, entry.config(id))
	}
	return snap, nil
}

func encodeSnapshot(snap snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"hosts":{`)
	for i, h := range snap.hosts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entryOf(h))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`},"current_host":`)
	cur, err := json.Marshal(snap.current)
	if err != nil {
		return nil, err
	}
	buf.Write(cur)
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// writeSnapshot replaces the registry file atomically.
func writeSnapshot(path string, snap snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to encode host registry: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
