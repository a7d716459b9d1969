//go:build windows

package chainkv

import "golang.org/x/sys/windows"

var sysPageSize = windows.Getpagesize()
