package jobs

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/uds"
	"github.com/zeptools/gw-docs/variant"
)

func TestAdminCommands_OverSocket(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	id, err := q.Enqueue(ctx, renderJob(variant.Receipt))
	require.NoError(t, err)

	// socket paths are length-limited; keep it short
	dir, err := os.MkdirTemp("", "uds")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "admin.sock")

	s := uds.NewService(ctx, sock, AdminCommands(q), zerolog.Nop())
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		s.Stop()
		<-s.Done()
	})

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	r := bufio.NewReader(conn)

	send := func(line string) {
		_, err := fmt.Fprintln(conn, line)
		require.NoError(t, err)
	}
	readLine := func() string {
		l, err := r.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSpace(l)
	}

	send("pending")
	assert.Equal(t, id, readLine())
	assert.Equal(t, "1 pending", readLine())

	send("status")
	assert.Equal(t, "error: expected 1 argument(s), got 0", readLine())
	assert.Equal(t, "usage: status <job-id>", readLine())

	send("help")
	help := make([]string, 5) // cancel, pending, status between blank lines
	for i := range help {
		help[i] = readLine()
	}
	assert.Equal(t, "", help[0])
	assert.True(t, strings.HasPrefix(help[1], "cancel <job-id>"))
	assert.True(t, strings.HasPrefix(help[2], "pending"))
	assert.Equal(t, "", help[4])

	send("bogus")
	assert.Equal(t, "unknown command: bogus", readLine())

	send("cancel " + id)
	assert.Equal(t, "canceled", readLine())

	send("cancel " + id)
	assert.Equal(t, "not queued", readLine())
}
