package preview

import (
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOnly(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "src/a.txt", []byte("A"), 0o644))
	ro := ReadOnly(mem)

	b, err := util.ReadFile(ro, "src/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "A", string(b))

	infos, err := ro.ReadDir("src")
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	_, err = ro.Create("b.txt")
	assert.ErrorIs(t, err, errReadOnly)
	_, err = ro.OpenFile("src/a.txt", os.O_WRONLY|os.O_TRUNC, 0)
	assert.ErrorIs(t, err, errReadOnly)
	assert.ErrorIs(t, ro.Remove("src/a.txt"), errReadOnly)
	assert.ErrorIs(t, ro.MkdirAll("x", 0o755), errReadOnly)

	sub, err := ro.Chroot("src")
	require.NoError(t, err)
	_, err = sub.Create("c.txt")
	assert.ErrorIs(t, err, errReadOnly)
}

func TestServerListens(t *testing.T) {
	s, err := NewServer(memfs.New(), "")
	require.NoError(t, err)
	assert.Positive(t, s.Port())

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.Port())))
	require.NoError(t, err)
	_ = conn.Close()

	require.NoError(t, s.Close())
	<-s.Done()
}

func TestMountCommand(t *testing.T) {
	cmd, err := MountCommand(2049, "/mnt/x")
	if err != nil {
		t.Skip(err)
	}
	assert.Contains(t, cmd, "port=2049")
	assert.Contains(t, cmd, "/mnt/x")
}
