// Package config handles configuration loading and merging for scriptdeck.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--scripts-root, --owner, --log-level, --no-color, --interpreter)
//  2. Environment variables (SCRIPTDECK_*, GITHUB_TOKEN, NO_COLOR)
//  3. YAML config file (.scriptdeck.yaml in the working directory or
//     <UserConfigDir>/scriptdeck/config.yaml)
//  4. Hardcoded defaults
//
// A .env file in the working directory is loaded into the environment first.
// It never overrides variables that are already set.
//
// # Environment Variables
//
//   - SCRIPTDECK_SCRIPTS_ROOT: directory holding scripts-config.json and bundled/
//   - SCRIPTDECK_GITHUB_OWNER: GitHub account that hosts the script repositories
//   - GITHUB_TOKEN or SCRIPTDECK_GITHUB_TOKEN: optional API token
//   - SCRIPTDECK_INTERPRETER: PowerShell executable (powershell.exe or pwsh)
//   - SCRIPTDECK_POLL_INTERVAL: capture-file poll interval, e.g. 500ms
//   - SCRIPTDECK_TEMP_DIR: where elevated runs write capture files
//   - SCRIPTDECK_HISTORY: path of the run history database
//   - SCRIPTDECK_LOG_LEVEL: logrus level name
//   - SCRIPTDECK_NO_COLOR or NO_COLOR: "true" or "1" disables colors
//
// Branding (application name, titles, company URL) is read separately from
// branding.json next to the scripts root; see LoadBranding.
package config
