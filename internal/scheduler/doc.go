// Package scheduler runs the loop that activates targets when the wall clock
// reaches one of their weekly triggers.
//
// # Overview
//
// The Loop owns two private copies of the target list: "full", taken from the
// shared store whenever the loop is (re)started, and "working", which shrinks
// as triggers fire. Matching always happens against working, never against
// the store, so no lock is held while sleeping or while the activation sink
// runs.
//
// # Control
//
// The loop is steered by a control.Channel carrying booleans. true means
// "run, and take a fresh snapshot"; false means "go idle and drop the
// snapshot". Every pending message is drained before each tick, so the
// stop+start pulse the store emits after an edit collapses into exactly one
// fresh snapshot.
//
// # Ticks
//
// While running, each tick reads the clock once, truncates it to the minute,
// and fires the first working target with a matching trigger. The fired
// trigger is retired from that target's copy, which moves to the end of the
// working list. Only one activation happens per tick; another target sharing
// the same minute fires on a following tick if the minute has not rolled over.
// When the working list runs out of triggers it is restored from full.
//
// A target that fired is not fired again until the observed minute changes,
// even if a restore or a re-sync brings its trigger back within that minute.
package scheduler
