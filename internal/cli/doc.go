// Package cli implements the lookout command-line interface.
//
// Each Cobra command loads the config through a session, which owns the
// logger and the engine built from it, and then hands the engine to one of
// the surfaces:
//
//	lookout watch     - live dashboard (headless monitor when piped)
//	lookout run       - headless monitor plus the status API
//	lookout check     - one probe cycle, table or --json, exit code
//	lookout resolve   - print the resolved target tree as YAML
//	lookout version   - build information
//
// Global flags (--config, --no-color, --debug) are defined on the root
// command. Long-running commands stop on SIGINT or SIGTERM and reload the
// config file when it changes on disk.
//
// Errors from internal packages are *errors.Error values whose message and
// suggestion are printed as-is; --json output wraps them in a JSONEnvelope.
package cli
