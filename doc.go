// Package dockboard is a dashboard backend for containers spread over
// several Docker engines.
//
// # Overview
//
// Dockboard keeps a registry of Docker hosts, probes all of them
// concurrently on every dashboard request and merges what answers into
// one view. A host that is down, slow or misconfigured shows up as an
// error entry with a hint; it never hides the hosts that respond.
//
//	┌─────────────────┐
//	│  REST + WS API  │
//	│  (Echo)         │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Aggregator     │◄──────┤  Host registry  │
//	│  (errgroup)     │       │  (JSON file)    │
//	└────────┬────────┘       └─────────────────┘
//	         │
//	┌────────▼────────┐
//	│  Adapter pool   │  unix socket, tcp, tcp+TLS, ssh tunnel
//	└─────────────────┘
//
// # Usage
//
// Start the API server:
//
//	dockboard server --config config.yaml
//
// Print one aggregation pass:
//
//	dockboard snapshot --fidelity full -o yaml
//
// Check a host:
//
//	dockboard hosts test prod-01
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (config.yaml, see "dockboard config init")
//   - Environment variables (DOCKBOARD_ prefix, plus PORT, HOST_URL,
//     ENABLE_STATS, SKIP_INITIAL_STATS, FAST_INITIAL_LOAD, LOG_LEVEL and
//     DOCKER_TIMEOUT)
//   - .env file
//
// # API Endpoints
//
// Dashboard:
//   - GET    /health
//   - GET    /api/v1/dashboard?fidelity=fast|full
//
// Hosts:
//   - GET    /api/v1/hosts
//   - POST   /api/v1/hosts
//   - GET    /api/v1/hosts/current
//   - GET    /api/v1/hosts/:id
//   - PUT    /api/v1/hosts/:id
//   - DELETE /api/v1/hosts/:id
//   - POST   /api/v1/hosts/:id/switch
//   - POST   /api/v1/hosts/:id/test
//   - GET    /api/v1/hosts/:id/stats
//   - GET    /api/v1/hosts/:id/containers/:cid
//   - GET    /api/v1/hosts/:id/containers/:cid/stats
//   - GET    /api/v1/hosts/:id/unused
//
// Self-hosted apps:
//   - GET    /api/v1/apps
//   - POST   /api/v1/apps
//   - GET    /api/v1/apps/categories
//   - GET    /api/v1/apps/:id
//   - PUT    /api/v1/apps/:id
//   - DELETE /api/v1/apps/:id
//
// WebSocket:
//   - GET    /api/v1/ws/events
//   - GET    /api/v1/ws/stats
package dockboard
