// Package scheduler computes the next workday posting time and waits for it.
// NextTrigger is pure date arithmetic; Waiter sleeps towards the target in
// halving steps so that clock corrections during a long wait are picked up.
package scheduler
