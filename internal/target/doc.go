// Package target defines launch targets and their weekly triggers.
//
// A Trigger is a (weekday, hour, minute) value with minute resolution.
// Matching is exact equality after truncating the observed clock to the
// minute (see Observe). Retire removes one matched trigger from a copy of a
// target; the scheduler uses it to keep a fired trigger from matching again
// within the same polling window.
package target
