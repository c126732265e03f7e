// Package inotify exposes inotify(7) instance consumption by walking
// /proc/<pid>/fd and counting descriptors that link to
// anon_inode:inotify, reported per process and aggregated per user.
package inotify
