// Package transport owns remote-shell delivery concerns.
//
// Ownership boundary:
//   - transport-level connectivity probing (diagnostic, never gating)
//   - the primary remote-shell clients (system ssh, native ssh over the overlay)
//   - the primary/secondary fallback chain and policy-denial classification
//
// Ordering within one execution is strictly probe -> primary -> optional
// secondary, all under a single shared deadline. The secondary path exists to
// route around overlay access-policy rejections only, not unreachability.
package transport
