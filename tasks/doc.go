// Package tasks holds backend operations that run as mt jobs: fetching a git
// remote, walking commit history, and a timed demo job.
package tasks
