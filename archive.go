package sindri

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// packageCircuit turns a circuit upload path into the file part of the
// circuit/create request. An existing archive (.tar.gz, .tgz, .zip) is read
// as-is; a directory is packaged into an in-memory gzipped tarball with the
// directory name as the top-level entry.
func packageCircuit(uploadPath string) (filename string, contents []byte, err error) {
	info, err := os.Stat(uploadPath)
	if err != nil {
		return "", nil, &ValidationError{Field: "upload", Reason: fmt.Sprintf("upload path does not exist: %s", uploadPath)}
	}

	if !info.IsDir() {
		name := filepath.Base(uploadPath)
		if !isArchive(name) {
			return "", nil, &ValidationError{Field: "upload", Reason: fmt.Sprintf("upload file must be a .tar.gz or .zip archive: %s", uploadPath)}
		}
		contents, err = os.ReadFile(uploadPath)
		if err != nil {
			return "", nil, &ValidationError{Field: "upload", Reason: fmt.Sprintf("reading %s: %v", uploadPath, err)}
		}
		return name, contents, nil
	}

	abs, err := filepath.Abs(uploadPath)
	if err != nil {
		return "", nil, &ValidationError{Field: "upload", Reason: fmt.Sprintf("resolving %s: %v", uploadPath, err)}
	}
	contents, err = tarDirectory(abs)
	if err != nil {
		return "", nil, &ValidationError{Field: "upload", Reason: fmt.Sprintf("packaging %s: %v", uploadPath, err)}
	}
	return filepath.Base(abs) + ".tar.gz", contents, nil
}

func isArchive(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".zip")
}

// tarDirectory writes dir into a gzipped tar archive. Entries are rooted at
// the directory's base name so the service unpacks a single folder.
func tarDirectory(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	root := filepath.Base(dir)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := root
		if rel != "." {
			name = filepath.Join(root, rel)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(name)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
