//go:build !linux

package queue

import (
	"bytes"
	"runtime"
	"strconv"
)

// Without gettid the worker goroutine id stands in for the thread id; the
// worker never changes goroutine, so the comparison holds.
func currentThreadID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(bytes.TrimPrefix(buf[:n], []byte("goroutine ")))
	if len(fields) == 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

func sameThread(owner, caller int64) bool {
	return owner > 0 && owner == caller
}
