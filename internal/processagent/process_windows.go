//go:build windows

package processagent

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setupProcessGroup configures the command to run in its own process group.
// On Windows, this uses CREATE_NEW_PROCESS_GROUP.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags = syscall.CREATE_NEW_PROCESS_GROUP
}

// signalGroup is unsupported on Windows; Signal falls back to the process,
// where os.Process.Signal only implements Kill.
func signalGroup(pid int, sig os.Signal) error {
	return errors.New("process groups are not signalable on windows")
}

// platformSignal maps termination signals to os.Kill, the only signal
// os.Process supports on Windows.
func platformSignal(sig os.Signal) os.Signal {
	if sig == syscall.SIGTERM || sig == os.Interrupt {
		return os.Kill
	}
	return sig
}
