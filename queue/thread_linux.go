//go:build linux

package queue

import "golang.org/x/sys/unix"

func currentThreadID() int64 {
	return int64(unix.Gettid())
}

func sameThread(owner, caller int64) bool {
	return owner != 0 && owner == caller
}
