// Package preview serves a generated tree over NFSv3 so it can be mounted
// and browsed before anything is written to disk.
package preview

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// Server is a running NFS server.
type Server struct {
	listener net.Listener
	port     int
	done     chan error
}

// NewServer starts an NFS server for fs on addr. An addr of "" listens on
// an ephemeral localhost port. The filesystem is served read-only.
func NewServer(fs billy.Filesystem, addr string) (*Server, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := nfshelper.NewNullAuthHandler(ReadOnly(fs))
	cacheHelper := nfshelper.NewCachingHandler(handler, 4096)

	s := &Server{listener: listener, port: port, done: make(chan error, 1)}
	go func() {
		s.done <- nfs.Serve(listener, cacheHelper)
	}()
	return s, nil
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.port
}

// Done receives the serve loop's result once it stops.
func (s *Server) Done() <-chan error {
	return s.done
}

// Close stops the server.
func (s *Server) Close() error {
	return s.listener.Close()
}

// MountArgs returns the command line that mounts a server on port at
// mountpoint, read-only.
func MountArgs(port int, mountpoint string) ([]string, error) {
	var opts string
	switch runtime.GOOS {
	case "darwin":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,locallocks,noresvport,rdonly", port, port)
	case "linux":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,local_lock=all,nolock,ro", port, port)
	default:
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return []string{"sudo", "mount", "-t", "nfs", "-o", opts, "localhost:/", mountpoint}, nil
}

// MountCommand renders MountArgs as a shell command.
func MountCommand(port int, mountpoint string) (string, error) {
	args, err := MountArgs(port, mountpoint)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

// Mount runs the mount command. It needs sudo.
func Mount(port int, mountpoint string) error {
	args, err := MountArgs(port, mountpoint)
	if err != nil {
		return err
	}
	cmd := exec.Command(args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mount failed: %w\n%s", err, string(output))
	}
	return nil
}

// Unmount unmounts mountpoint.
func Unmount(mountpoint string) error {
	if runtime.GOOS == "darwin" {
		// diskutil needs no sudo for user NFS mounts.
		if err := exec.Command("diskutil", "unmount", mountpoint).Run(); err == nil {
			return nil
		}
	}
	output, err := exec.Command("sudo", "umount", mountpoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("unmount failed: %w\n%s", err, string(output))
	}
	return nil
}
