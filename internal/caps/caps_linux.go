//go:build linux

// Package caps checks whether this process holds the single Linux
// capability the collector cares about: binding to a privileged port.
package caps

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const linuxCapV3 = 0x20080522

// netBindService is CAP_NET_BIND_SERVICE's bit position in the
// kernel's capability sets; see capabilities(7).
const netBindService = 10

type capHeader struct {
	version uint32
	pid     int
}

type capData struct {
	effective   uint32
	permitted   uint32
	inheritable uint32
}

// HasNetBindService reports whether the running process can bind to
// ports below 1024. Root always can; everything else is checked via
// the CAPGET syscall, following the same raw-syscall approach as
// other Linux capability checkers in this ecosystem.
func HasNetBindService() bool {
	if os.Getuid() == 0 || os.Geteuid() == 0 {
		return true
	}
	hdr := capHeader{version: linuxCapV3}
	var data [2]capData
	_, _, errno := unix.RawSyscall(unix.SYS_CAPGET, uintptr(unsafe.Pointer(&hdr)), uintptr(unsafe.Pointer(&data)), 0)
	if errno != 0 {
		return false
	}
	effective := uint64(data[0].effective) | (uint64(data[1].effective) << 32)
	return effective&(1<<netBindService) != 0
}
