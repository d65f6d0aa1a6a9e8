// Package throttle rate-limits high-frequency events on their way back to
// the scripting program.
//
// A Throttle delivers the first call immediately. Calls arriving within the
// interval after a delivery are coalesced into one trailing delivery carrying
// the most recent payload, fired when the interval elapses. A burst of any
// size inside one interval therefore produces exactly two deliveries.
//
// Throttles are confined to the goroutine of their scheduler, normally the UI
// queue, and are not safe for concurrent use.
package throttle
