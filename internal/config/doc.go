// Package config loads the monitored queue list and resolves credentials.
//
// Top-level types:
//   - Config{Queues, Skipped}: the valid entries in file order plus an
//     aggregated error naming every entry that was left out
//   - QueueThreshold: queue name (or generic name ending in '*'),
//     warning_depth, critical_depth
//   - ParseError: why one entry was skipped (missing field, not an integer,
//     negative)
//   - Credentials: optional user/password pair
//
// Load(path) picks the format from the extension: .yaml/.yml are parsed with
// yaml.v3, anything else as INI sections like the historical
// wmq_queues_list.conf:
//
//	[APP.ORDERS]
//	warning_depth = 100
//	critical_depth = 500
//
// Keys in an INI [DEFAULT] section are inherited by every queue section.
// A malformed entry never fails the load; only an unreadable or
// syntactically broken file does.
//
// ResolveCredentials(c, path) fills missing WMQ_USER / WMQ_PASSWORD values
// from a dotenv file so passwords stay off the command line.
package config
