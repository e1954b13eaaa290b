// Package app hosts the job core: a bubbletea terminal UI, and a line-based
// host for runs without a terminal. Both implement the core's collaborators
// (activities, prompts, error presentation and the stop affordance).
package app
