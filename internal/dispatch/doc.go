// Package dispatch owns asynchronous execution concerns.
//
// Ownership boundary:
//   - submit-request validation
//   - remote command construction
//   - execution-id assignment
//   - the concurrent execution-record table backing status polling
//
// Lifecycle order is validate -> build -> allocate id -> store pending ->
// spawn -> return id; the spawned task is the only writer after the pending
// record exists.
//
// Dispatch does not serialize concurrent executions against one device; two
// submissions for the same target race. Records are never evicted, so the
// table grows for the life of the process.
package dispatch
