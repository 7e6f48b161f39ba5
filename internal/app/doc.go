// Package app wires autolink together.
//
// NewApp loads config and the persisted target list. Start runs the scheduler
// loop under a supervisor together with the config and storage watchers.
// Stop cancels them and saves the list one last time.
package app
