//go:build !windows

package lmstudio

import "syscall"

// detachedProcAttr puts the server in its own process group so Ctrl+C in
// our terminal does not stop it.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
