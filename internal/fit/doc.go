// Package fit runs the greedy random search: perturb the best parameter
// set, synthesize, score, keep the candidate only if sigma drops.
//
// Step is one pure iteration. Controller holds a session and decides when
// iterating is possible. Driver runs a controller on its own goroutine.
package fit
