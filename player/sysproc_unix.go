//go:build !windows

package player

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// detached puts mpv in its own process group so terminal signals aimed at the player view skip it.
func detached() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killGroup kills mpv together with any helpers it spawned (ytdl hooks, ffmpeg).
func killGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
