// Package devserver connects a running host to a development server over
// socket.io so program builds can be pushed without touching the file system.
//
// The server emits "reload" with either the base64 program bytes, an object
// {"name", "data"} carrying them, or nothing to make the host reread its
// configured program file. The client answers with "reloaded" or
// "reload_failed".
package devserver
