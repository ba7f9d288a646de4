package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// SimulatorName is the executable LaunchSimulator looks for.
const SimulatorName = "rsip-sim"

func runSimulatorWithName(ctx context.Context, exeName string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, exeName, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed acquiring stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{ReadCloser: out, cmd: cmd}, nil
}

// LaunchSimulator starts the device simulator, looking next to the running
// executable first and then in $PATH, and returns its output stream.
// Closing the stream stops the simulator.
func LaunchSimulator(ctx context.Context, logger *zap.Logger, args ...string) (io.ReadCloser, error) {
	logger = orNop(logger)
	execPath, err := os.Executable()
	if err == nil {
		simExe := filepath.Join(filepath.Dir(execPath), SimulatorName)
		if runtime.GOOS == "windows" {
			simExe += ".exe"
		}
		logger.Debug("looking for simulator", zap.String("path", simExe))
		output, err := runSimulatorWithName(ctx, simExe, args...)
		if err == nil {
			return output, nil
		}
	}

	logger.Debug("searching path for simulator")
	simExe, err := exec.LookPath(SimulatorName)
	if err != nil {
		return nil, fmt.Errorf("unable to locate %q in $PATH: %w", SimulatorName, err)
	}
	output, err := runSimulatorWithName(ctx, simExe, args...)
	if err != nil {
		return nil, fmt.Errorf("failed launching %q: %w", simExe, err)
	}
	return output, nil
}

// process kills and reaps the command when its output is closed.
type process struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *process) Close() error {
	err := p.ReadCloser.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
	return err
}
