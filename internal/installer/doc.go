// Package installer runs component installation workflows in the background.
// It is structured into small files by concern:
//
//   - orchestrator.go: Orchestrator, Run, the single-run gate and step ordering.
//   - config.go: Config and package defaults; New applies defaults.
//   - steps.go: whole-component script step and filtered-subset step.
//   - items.go: per-item plugin and model install actions.
//   - runner.go: child process execution with line-streamed output.
//   - checkout.go: ephemeral checkout of the installer repository.
//   - download.go: model weight downloads.
//   - errors.go: rejection errors (IsAlreadyInProgress, IsNoComponentsSelected).
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus counters.
//
// At most one run is active at a time. Progress is reported as lines on a
// console.Channel and durable state is written to a status.Store.
package installer
