/*
Package log provides structured logging built on zerolog: a package-level
Logger, Init to configure level/format/output, and WithComponent/WithHost/
WithSession helpers that return child loggers carrying those fields.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithHost(host).With().Str("component", "agent").Logger()
	logger.Info().Msg("agent started")

	log.WithSession(sessionID).Info().Str("host", host).Msg("acquired leadership")

Component, host, and session loggers compose via the normal zerolog
With() chain; there is no all-in-one constructor, since call sites need
different subsets of these fields.
*/
package log
