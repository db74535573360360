// Package invoker wraps a single execution of the external request
// executor, producing exactly one [Outcome] per call.
//
// Two invokers exist: [Curl] shells out to the curl binary (or any
// compatible executor) and reads the status code from its stdout, while
// [Builtin] performs the request in-process for environments without curl.
// Both measure wall-clock time around the call and never return an error:
// spawn failures, abnormal exits, and malformed statuses become failed
// outcomes so the run keeps going.
package invoker
