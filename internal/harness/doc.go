// Package harness executes materialized acceptance cases against a
// FIX engine.
//
// The selection pipeline decides which scenarios run; this package only
// runs them. Each case builds its own environment through the factory it
// was bound to, then hands the scenario to an Executor.
//
// # Executors
//
// An Executor plays one scenario definition against the system under
// test and reports a *ScenarioFailure when observed traffic does not
// match the definition. CommandExecutor runs an external interpreter
// binary per scenario:
//
//	<path> <args...> <location>/<identifier>
//
// with the session settings exported as environment variables:
//
//	FIXACCEPT_VERSION          protocol version, e.g. "4.2"
//	FIXACCEPT_BEGIN_STRING     BeginString(8), e.g. "FIX.4.2"
//	FIXACCEPT_SENDER_COMP_ID   SenderCompID(49) of the acceptor
//	FIXACCEPT_TARGET_COMP_ID   TargetCompID(56) of the acceptor
//	FIXACCEPT_HEARTBTINT       HeartBtInt(108) in seconds
//
// A zero exit status is a pass; any other exit status is a failure and
// the combined output is kept on the failure.
//
// # Isolation
//
// A failing case never stops the run. Results are reported in the
// materialized order whatever the worker count, so two runs over the
// same list can be compared line by line.
//
// # Usage
//
//	runner := harness.NewRunner(&harness.CommandExecutor{Path: "./fixinterp"})
//	runner.Workers = 4
//	report, err := runner.Run(ctx, cases)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !report.OK() {
//	    os.Exit(1)
//	}
package harness
