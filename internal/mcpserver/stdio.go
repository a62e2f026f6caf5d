package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tessro/acm/internal/logging"
)

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes
// responses to out until in is exhausted or ctx is done. Each message is
// handled on its own goroutine so a pending wait does not hold up other
// calls; writes are serialized. In-flight calls are cancelled when ServeStdio
// returns.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	var writeMu sync.Mutex
	write := func(data []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := out.Write(append(data, '\n')); err != nil {
			s.log.Warn("failed to write response", "error", err)
		}
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer logging.LogPanic("stdio-reader", nil)
		defer close(lines)
		r := bufio.NewReader(in)
		for {
			line, err := r.ReadBytes('\n')
			if line = bytes.TrimSpace(line); len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	s.log.Info("serving MCP over stdio")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if errors.Is(err, io.EOF) {
						s.log.Info("stdin closed")
						return nil
					}
					return fmt.Errorf("read stdin: %w", err)
				default:
					return nil
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer logging.LogPanic("mcp-request", nil)
				if resp := s.HandleMessage(ctx, line); resp != nil {
					write(resp)
				}
			}()
		}
	}
}
