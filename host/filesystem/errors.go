package filesystem

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Error is a filesystem failure carrying a POSIX errno name.
type Error struct {
	Err   error
	Errno string
	Op    string
	Path  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s, %s '%s'", e.Errno, describe(e.Errno), e.Op, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the errno name, e.g. ENOENT.
func (e *Error) Code() string { return e.Errno }

func describe(errno string) string {
	switch errno {
	case "ENOENT":
		return "no such file or directory"
	case "EACCES":
		return "permission denied"
	case "EEXIST":
		return "file already exists"
	case "EISDIR":
		return "illegal operation on a directory"
	case "ENOTDIR":
		return "not a directory"
	case "ENOTEMPTY":
		return "directory not empty"
	case "ENAMETOOLONG":
		return "name too long"
	case "ENOSPC":
		return "no space left on device"
	case "EROFS":
		return "read-only file system"
	case "ELOOP":
		return "too many symbolic links encountered"
	case "EBUSY":
		return "resource busy or locked"
	case "EINVAL":
		return "invalid argument"
	}
	return "i/o error"
}

func newError(op, path, errno string, cause error) *Error {
	return &Error{Op: op, Path: path, Errno: errno, Err: cause}
}

func mapOSError(op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return newError(op, path, mapErrno(errno), err)
	}
	switch {
	case os.IsNotExist(err):
		return newError(op, path, "ENOENT", err)
	case os.IsPermission(err):
		return newError(op, path, "EACCES", err)
	case os.IsExist(err):
		return newError(op, path, "EEXIST", err)
	}
	return newError(op, path, "EIO", err)
}

func mapErrno(errno syscall.Errno) string {
	switch errno {
	case syscall.EACCES, syscall.EPERM:
		return "EACCES"
	case syscall.ENOENT:
		return "ENOENT"
	case syscall.EEXIST:
		return "EEXIST"
	case syscall.ENOTDIR:
		return "ENOTDIR"
	case syscall.EISDIR:
		return "EISDIR"
	case syscall.ENOTEMPTY:
		return "ENOTEMPTY"
	case syscall.ENAMETOOLONG:
		return "ENAMETOOLONG"
	case syscall.ENOSPC:
		return "ENOSPC"
	case syscall.EROFS:
		return "EROFS"
	case syscall.ELOOP:
		return "ELOOP"
	case syscall.EBUSY:
		return "EBUSY"
	case syscall.EINVAL:
		return "EINVAL"
	default:
		return "EIO"
	}
}
