// Package cli implements the command-line interface for fixture-calendar.
//
// The root command runs one publishing cycle: it fetches the fixture list,
// extracts the configured team's matches and rewrites the calendar when they
// changed. The list subcommand prints the extracted fixtures (text or JSON,
// sortable by date, opponent or venue) without touching the calendar or the
// state file. Configuration comes from the environment and is overridden by
// flags.
package cli
