package engine

import (
	"context"
	"fmt"

	"evalgo.org/dockboard/internal/hosts"
)

// TestResult is the outcome of a connection test.
type TestResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	EngineVersion string `json:"docker_version,omitempty"`
	APIVersion    string `json:"api_version,omitempty"`
	SystemName    string `json:"system_name,omitempty"`
	OS            string `json:"os,omitempty"`
	Architecture  string `json:"architecture,omitempty"`
	Containers    int    `json:"containers"`
	Images        int    `json:"images"`
	HostURL       string `json:"host_url"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

// Test builds a throwaway adapter for cfg, pings it and closes it. Failures
// are reported in the result rather than returned.
func Test(ctx context.Context, cfg hosts.Config, factory Factory) TestResult {
	res := TestResult{HostURL: cfg.ConnectionURI}

	a, err := factory(cfg)
	if err != nil {
		return res.failed(err)
	}
	defer a.Close()

	info, err := a.Ping(ctx)
	if err != nil {
		return res.failed(err)
	}

	res.Success = true
	res.Message = fmt.Sprintf("Connection successful (Docker %s)", info.EngineVersion)
	res.EngineVersion = info.EngineVersion
	res.APIVersion = info.APIVersion
	res.SystemName = info.Name
	res.OS = info.OS
	res.Architecture = info.Architecture
	res.Containers = info.Containers
	res.Images = info.Images
	return res
}

func (r TestResult) failed(err error) TestResult {
	r.Success = false
	r.Error = err.Error()
	r.ErrorKind = Kind(err)
	r.Suggestion = Suggestion(err)
	return r
}
