// Package hosts keeps the durable, ordered registry of Docker engine
// endpoints and the pointer to the host the operator is currently focused on.
package hosts

import (
	"fmt"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
)

const (
	// LocalID is the id of the host synthesized when no registry file exists.
	LocalID = "local"

	// LocalSocket is the connection URI of the synthesized local host.
	LocalSocket = "unix:///var/run/docker.sock"
)

// Config describes how to reach one Docker engine.
type Config struct {
	ID            string `json:"id" yaml:"id" validate:"required,hostid"`
	Name          string `json:"name" yaml:"name" validate:"notblank"`
	ConnectionURI string `json:"host" yaml:"host" validate:"notblank"`
	TLSVerify     bool   `json:"tls_verify" yaml:"tls_verify"`
	CertPath      string `json:"cert_path,omitempty" yaml:"cert_path,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	IsDefault     bool   `json:"default" yaml:"default"`
}

// Endpoint parses the connection URI of the config.
func (c Config) Endpoint() (Endpoint, error) {
	return ParseEndpoint(c.ConnectionURI, c.TLSVerify)
}

// LocalConfig returns the fallback entry used when the registry is empty.
func LocalConfig() Config {
	return Config{
		ID:            LocalID,
		Name:          "Local Docker",
		ConnectionURI: LocalSocket,
		Description:   "Local Docker daemon",
		IsDefault:     true,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ID            *string `json:"id,omitempty"`
	Name          *string `json:"name,omitempty"`
	ConnectionURI *string `json:"host,omitempty"`
	TLSVerify     *bool   `json:"tls_verify,omitempty"`
	CertPath      *string `json:"cert_path,omitempty"`
	Description   *string `json:"description,omitempty"`
	IsDefault     *bool   `json:"default,omitempty"`
}

// Apply returns a copy of c with the patch fields applied.
func (p Patch) Apply(c Config) Config {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ConnectionURI != nil {
		c.ConnectionURI = *p.ConnectionURI
	}
	if p.TLSVerify != nil {
		c.TLSVerify = *p.TLSVerify
	}
	if p.CertPath != nil {
		c.CertPath = *p.CertPath
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsDefault != nil {
		c.IsDefault = *p.IsDefault
	}
	return c
}

func normalize(c Config) Config {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.ConnectionURI = strings.TrimSpace(c.ConnectionURI)
	c.CertPath = strings.TrimSpace(c.CertPath)
	c.Description = strings.TrimSpace(c.Description)
	return c
}

func errNotFound(id string) error {
	return fmt.Errorf("host %q: %w", id, cerrdefs.ErrNotFound)
}

func errConflict(id string) error {
	return fmt.Errorf("host %q: %w", id, cerrdefs.ErrAlreadyExists)
}

func errInvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), cerrdefs.ErrFailedPrecondition)
}
