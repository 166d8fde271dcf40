package taskwarrior

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Client shells out to the Taskwarrior binary.
type Client struct {
	// Binary is the executable to run; "task" unless overridden.
	Binary string
}

func NewClient() *Client {
	return &Client{Binary: "task"}
}

// GetTasks runs `task <filter> export` with hooks disabled.
func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	cmd := exec.CommandContext(ctx, c.Binary, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s export exited with %d: %s", c.Binary, exitErr.ExitCode(), bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("could not run %s: %w", c.Binary, err)
	}
	return Decode(bytes.NewReader(output))
}

// Decode accepts either a JSON array, as `task export` prints, or one JSON
// object per line.
func Decode(r io.Reader) ([]Task, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []Task{}, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var tasks []Task
		if err := dec.Decode(&tasks); err != nil {
			return nil, fmt.Errorf("malformed Taskwarrior export: %w", err)
		}
		return tasks, nil
	}

	tasks := []Task{}
	for {
		var t Task
		if err := dec.Decode(&t); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("malformed Taskwarrior task %d: %w", len(tasks)+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
