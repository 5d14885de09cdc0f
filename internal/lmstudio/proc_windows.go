//go:build windows

package lmstudio

import "syscall"

const createNewConsole = 0x00000010

// detachedProcAttr gives the server its own console window.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: createNewConsole,
	}
}
