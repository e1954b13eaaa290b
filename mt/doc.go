// Package mt runs slow backend jobs on worker goroutines while keeping every
// UI-visible side effect on a single bound UI goroutine.
//
// A Job pairs an Ops implementation with a cancellation Token and an error
// slot. Jobs are registered in the Core's active table from creation until
// they are released, which makes Cancel and WaitFor work by id alone:
//
//	core := mt.New(mt.WithActivityHost(host), mt.WithErrorPresenter(host))
//	id, _ := core.Submit(mt.Queued, ops, core.ReplyPort())
//	core.Cancel(id)
//
// Receive runs on a worker. Reply, the error check and Destroy run on the UI
// goroutine when the host calls Drain. Status updates create a per-job
// Activity lazily; the activity state machine decides which goroutine
// releases the job when a job finishes while its activity is being created.
package mt
