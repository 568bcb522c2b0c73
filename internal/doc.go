// Package renugrid implements a telemetry monitor for a small solar
// installation publishing to a ThingSpeak channel.
//
// # Architecture
//
// The monitor is structured into several key packages:
//   - api: ThingSpeak feed client
//   - telemetry: Field parsing, mode classification and display formatting
//   - dashboard: The single source of truth for what is presented
//   - scheduler: Periodic polling with skip-if-busy ticks
//   - sink: Fan-out of new samples to InfluxDB and MQTT
//   - database: TimescaleDB storage and archive queries
//   - web: HTTP API, WebSocket stream and Prometheus endpoint
//   - grpc: Health service mirroring feed connectivity
//   - tui: Terminal dashboard
//   - config, metrics, models: Shared plumbing
//
// Key Features
//
//   - Polling:
//     One poll at startup and one per interval. A tick that fires while a
//     poll is in flight is skipped, and late outcomes never overwrite newer
//     ones.
//
//   - Connectivity:
//     Connecting until the first outcome, then Connected or Failed with a
//     reason. A failed poll keeps the last good values on screen.
//
//   - Mode:
//     Negative current means the panels are generating, anything else means
//     the load is consuming.
//
// Example Usage
//
//	renugrid dashboard --config config.yaml
//	renugrid serve
//	curl localhost:8080/api/state
//
// For more information about specific packages, see their respective
// documentation.
package renugrid
