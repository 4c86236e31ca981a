// Package errors provides coded, actionable error messages for morph
// tooling.
//
// Every registered code maps to a category, a short message, an
// explanation and, where one exists, a hint. Configuration errors can
// point at the offending line of the file they came from.
//
// # Error Categories
//
//   - runtime: application wiring errors
//   - protocol: wire format errors
//   - session: session limits and storage
//   - config: configuration file and environment errors
//   - cli: command failures
//
// # Usage
//
//	err := errors.New(errors.CodeInvalidDuration).
//	    WithLocation("morph.yaml", 4, 20).
//	    WithDetailf("server.read_timeout is %s", d)
//
//	errors.PrintError(err)
//	// ERROR M104: Invalid duration
//	//
//	//   morph.yaml:4:20
//	//
//	//        2 │ server:
//	//        3 │   addr: ":8080"
//	//   →    4 │   read_timeout: -5s
//	//          │                    ^
//	//
//	//   server.read_timeout is -5s
//	//
//	//   Hint: Write durations like "30s" or "5m".
//
// MorphErrors compare equal under errors.Is when their codes match, so
// callers can test for a code with errors.Is(err, errors.New(code)).
package errors
