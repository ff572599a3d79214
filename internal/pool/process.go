package pool

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"filterbench/internal/domain"
)

// WorkerCommand describes how to launch a worker process. The process must run
// Serve on its stdin and stdout.
type WorkerCommand struct {
	Path string
	Args []string
	Env  []string
}

// DefaultWorkerCommand re-executes the running binary in worker mode.
func DefaultWorkerCommand() (WorkerCommand, error) {
	exe, err := os.Executable()
	if err != nil {
		return WorkerCommand{}, fmt.Errorf("locate executable: %w", err)
	}
	return WorkerCommand{Path: exe, Args: []string{"worker"}}, nil
}

// workerProcess is the parent-side handle of one running worker process.
type workerProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
	pid   int
}

func startWorker(c WorkerCommand) (*workerProcess, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	return &workerProcess{
		cmd:   cmd,
		stdin: stdin,
		enc:   json.NewEncoder(stdin),
		dec:   json.NewDecoder(bufio.NewReader(stdout)),
		pid:   cmd.Process.Pid,
	}, nil
}

func (p *workerProcess) identity() domain.WorkerIdentity {
	return domain.WorkerIdentity{PID: p.pid}
}

// do sends one request and blocks until the worker answers it.
func (p *workerProcess) do(req Request) (domain.TaskOutcome, error) {
	if err := p.enc.Encode(req); err != nil {
		return domain.TaskOutcome{}, fmt.Errorf("worker %d: send: %w", p.pid, err)
	}

	var outcome domain.TaskOutcome
	if err := p.dec.Decode(&outcome); err != nil {
		return domain.TaskOutcome{}, fmt.Errorf("worker %d: receive: %w", p.pid, err)
	}
	if outcome.ImageID != req.Item.ImageID {
		return domain.TaskOutcome{}, fmt.Errorf("worker %d: answered %q for %q", p.pid, outcome.ImageID, req.Item.ImageID)
	}
	return outcome, nil
}

// close ends the worker by closing its input and waits for it to exit.
func (p *workerProcess) close() error {
	p.stdin.Close()
	return p.cmd.Wait()
}

// kill terminates a worker whose stream is no longer trustworthy.
func (p *workerProcess) kill() {
	p.stdin.Close()
	_ = p.cmd.Process.Kill()
	_ = p.cmd.Wait()
}

// dispatch runs one request on proc, starting a process first when proc is nil.
// A worker that breaks the protocol is killed and nil is returned in its place,
// so the next item gets a fresh process.
func dispatch(proc *workerProcess, c WorkerCommand, req Request) (domain.TaskOutcome, *workerProcess) {
	id := req.Item.ImageID

	if proc == nil {
		var err error
		if proc, err = startWorker(c); err != nil {
			return domain.Failed(id, &domain.TaskError{ImageID: id, Err: err}, domain.WorkerIdentity{}), nil
		}
	}

	outcome, err := proc.do(req)
	if err != nil {
		worker := proc.identity()
		proc.kill()
		return domain.Failed(id, &domain.TaskError{ImageID: id, Err: err}, worker), nil
	}
	return outcome, proc
}
