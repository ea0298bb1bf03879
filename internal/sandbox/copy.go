package sandbox

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Creates a directory inside the box, including parents.
func (b *Box) MkdirAll(ctx context.Context, path string) error {
	return b.mustExec(ctx, "mkdir", nil, nil, "mkdir", "-p", path)
}

// Copies a tar stream into the box's filesystem.
//
// The contents of r are extracted into destDir by piping them to "tar xf
// - -C destDir" inside the box.
func (b *Box) CopyTo(ctx context.Context, r io.Reader, destDir string) error {
	return b.mustExec(ctx, "tar extract", r, nil, "tar", "xf", "-", "-C", destDir)
}

// Copies a path from the box's filesystem as a tar stream.
//
// The file or directory at path is archived by running "tar cf - -C
// <dir> <base>" inside the box and streaming the output to w.
func (b *Box) CopyFrom(ctx context.Context, w io.Writer, path string) error {
	return b.mustExec(ctx, "tar archive", nil, w, "tar", "cf", "-", "-C", filepath.Dir(path), filepath.Base(path))
}

// Copies a single host file into a directory inside the box.
//
// The file keeps its base name. The destination directory is created
// first.
func (b *Box) PutFile(ctx context.Context, hostPath, destDir string) error {
	if err := b.MkdirAll(ctx, destDir); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	go func() {
		tw := tar.NewWriter(pw)
		err := writeFileToTar(tw, hostPath, filepath.Base(hostPath))
		tw.Close()
		pw.CloseWithError(err)
	}()

	return b.CopyTo(ctx, pr, destDir)
}

// Copies a single file from the box to a host path.
//
// Fails when the box path does not exist; callers fetching optional
// logs should tolerate the error.
func (b *Box) FetchFile(ctx context.Context, boxPath, hostPath string) error {
	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- b.CopyFrom(ctx, pw, boxPath)
		pw.Close()
	}()

	extractErr := extractSingleFile(pr, hostPath)

	// Drain so the archiving exec is not blocked on a full pipe.
	io.Copy(io.Discard, pr)

	if err := <-errc; err != nil {
		return err
	}
	return extractErr
}

// Reads the first regular file entry from a tar stream and writes it to
// hostPath.
func extractSingleFile(r io.Reader, hostPath string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return wrapf("no file in archive for %s", hostPath)
		}
		if err != nil {
			return wrap(err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		f, err := os.OpenFile(hostPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode)&0777)
		if err != nil {
			return wrap(err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return wrap(err)
		}
		return f.Close()
	}
}

// Copies a directory tree from the box into a host directory.
//
// The archived top-level directory is stripped so the entries land
// directly under hostDir. Entries that would escape hostDir are
// rejected.
func (b *Box) FetchDir(ctx context.Context, boxDir, hostDir string) error {
	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- b.CopyFrom(ctx, pw, boxDir)
		pw.Close()
	}()

	extractErr := extractTree(pr, hostDir)
	io.Copy(io.Discard, pr)

	if err := <-errc; err != nil {
		return err
	}
	return extractErr
}

// Extracts a tar stream into hostDir, stripping the leading path
// component.
func extractTree(r io.Reader, hostDir string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrap(err)
		}

		name := stripFirstComponent(header.Name)
		if name == "" {
			continue
		}

		target, err := secureJoin(hostDir, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return wrap(err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return wrap(err)
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode)&0777)
			if err != nil {
				return wrap(err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return wrap(err)
			}
			if err := f.Close(); err != nil {
				return wrap(err)
			}
		}
	}
}

// Drops the first path component of a tar entry name.
func stripFirstComponent(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// Joins a tar entry name onto a host directory, rejecting names that
// resolve outside it.
func secureJoin(hostDir, name string) (string, error) {
	target := filepath.Join(hostDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(hostDir)+string(os.PathSeparator)) {
		return "", wrapf("archive entry %q escapes %s", name, hostDir)
	}
	return target, nil
}

// Writes a single file to a tar writer with the given archive name.
func writeFileToTar(tw *tar.Writer, hostPath, name string) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
