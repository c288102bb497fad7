// Package process runs external media tools such as ffprobe. Output is
// captured up to a bound, cancellation stops the whole process group with
// SIGTERM before SIGKILL, and the last stderr line is kept for error
// reports.
package process
