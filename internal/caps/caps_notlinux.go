//go:build !linux

package caps

// HasNetBindService always reports true on non-Linux platforms: the
// capability model this check targets doesn't exist there, and the
// OS-level bind(2) call itself is the real arbiter.
func HasNetBindService() bool {
	return true
}
