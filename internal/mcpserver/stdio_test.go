package mcpserver_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestServeStdio_RespondsAndStopsOnEOF(t *testing.T) {
	h := newHarness(t)
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_processes","arguments":{}}}`,
	}, "\n"))
	out := &lockedWriter{}

	require.NoError(t, h.srv.ServeStdio(context.Background(), in, out))

	ids := map[string]bool{}
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var resp rpcResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		assert.Nil(t, resp.Error)
		ids[string(resp.ID)] = true
	}
	assert.Equal(t, map[string]bool{"1": true, "2": true}, ids)
}

func TestServeStdio_WaitDoesNotBlockOtherCalls(t *testing.T) {
	h := newHarness(t)
	inR, inW := io.Pipe()
	out := &lockedWriter{}

	done := make(chan error, 1)
	go func() { done <- h.srv.ServeStdio(context.Background(), inR, out) }()

	send := func(line string) {
		_, err := fmt.Fprintln(inW, line)
		require.NoError(t, err)
	}
	send(fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"run","arguments":{"workFolder":%q,"prompt":"p"}}}`, h.dir))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), `"id":1`) }, 2*time.Second, 5*time.Millisecond)

	send(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"wait","arguments":{"pids":[500],"timeout":30}}}`)
	send(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"kill_process","arguments":{"pid":500}}}`)

	// The kill answers while the wait is pending, and then releases it.
	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, `"id":3`) && strings.Contains(s, `"id":2`)
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, inW.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeStdio did not return after stdin closed")
	}
}

func TestServeStdio_CancelsPendingWaitOnEOF(t *testing.T) {
	h := newHarness(t)
	inR, inW := io.Pipe()
	out := &lockedWriter{}

	done := make(chan error, 1)
	go func() { done <- h.srv.ServeStdio(context.Background(), inR, out) }()

	fmt.Fprintf(inW, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"run","arguments":{"workFolder":%q,"prompt":"p"}}}`+"\n", h.dir)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), `"id":1`) }, 2*time.Second, 5*time.Millisecond)
	fmt.Fprintln(inW, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"wait","arguments":{"pids":[500],"timeout":60}}}`)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, inW.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pending wait kept ServeStdio alive")
	}
}

func TestServeStdio_ContextCancel(t *testing.T) {
	h := newHarness(t)
	inR, inW := io.Pipe()
	defer inW.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.srv.ServeStdio(ctx, inR, io.Discard) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeStdio ignored context cancellation")
	}
}
