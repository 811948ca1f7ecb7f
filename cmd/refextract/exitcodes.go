package main

// Exit codes of the refextract CLI.
const (
	ExitSuccess     = 0 // all files produced output, even if empty lists
	ExitError       = 1 // at least one file failed to parse
	ExitConfigError = 2 // invalid configuration or invocation
)
