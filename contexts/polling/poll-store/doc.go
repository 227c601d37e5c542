// Package pollstore implements the poll store inside the polling context.
//
// The module persists polls, votes and posting schedules through a generic
// key-value RecordStore port and owns the vote casting rule: multi-choice
// polls toggle a user's vote per choice, single-choice polls replace every
// prior vote of the user with the new one. Backends (memory, PostgreSQL,
// Scylla, Redis), the cron scheduler and event publishing sit behind ports
// and adapters.
package pollstore
