//go:build unix

package chainkv

import "golang.org/x/sys/unix"

var sysPageSize = unix.Getpagesize()
