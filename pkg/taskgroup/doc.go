// Package taskgroup manages named groups of periodic tasks.
//
// A group is defined once with a fixed, ordered list of tasks and is then
// started and stopped any number of times, typically in response to a
// dashboard tab being selected or a feature toggle being switched.
//
//	m := taskgroup.NewManager(taskgroup.NewTickerScheduler())
//	_ = m.DefineGroup("zigbee",
//		taskgroup.Task{Name: "devices", Period: 3 * time.Second, Run: fetchDevices},
//	)
//	_ = m.Start("zigbee") // runs fetchDevices once, then every 3s
//	_ = m.Start("zigbee") // no-op: already running
//	_ = m.Stop("zigbee")
//	defer m.StopAll()
//
// # States
//
// Each group is either STOPPED or RUNNING. Start on a running group and Stop
// on a stopped group are identity transitions, not errors. A group is
// running exactly when it holds live timer handles; Stop always leaves an
// empty handle set behind.
//
// # Kick and periodic firing
//
// Start invokes every task once, synchronously and in definition order,
// before it returns. Only then does it arm one timer per task. The first
// periodic firing of a task therefore happens one period after Start.
//
// # Failures
//
// A task that returns an error or panics is reported to the Observer as a
// *TaskExecutionError. The failure never propagates: siblings keep their own
// schedules and the failing task fires again on its next tick. There is no
// retry or backoff beyond the fixed period.
//
// # Schedulers
//
// TickerScheduler drives timers from the wall clock. ManualScheduler keeps
// virtual time that only moves on Advance, which makes firing counts
// deterministic in tests.
package taskgroup
