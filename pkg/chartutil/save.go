/*
Copyright The clk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package chartutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/clk-project/subchart/internal/fileutil"
	"github.com/clk-project/subchart/pkg/chart"
)

// Save packages a chart directory into an archive in outDir.
//
// If outDir is /foo and the chart is named bar with version 1.0.0, this
// generates /foo/bar-1.0.0.tgz. An existing archive of the same name is
// replaced. The archive is staged under a temp name and renamed into place,
// so a crash never leaves a half-written archive behind.
//
// The directory tree is packaged verbatim, with the chart name as the
// top-level prefix inside the archive. This returns the path to the archive
// file.
func Save(c *chart.Chart, outDir string) (string, error) {
	if err := c.Metadata.Validate(); err != nil {
		return "", errors.Wrap(err, "chart validation")
	}
	if err := validateName(c.Name()); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	buf, err := compressDir(c.Path, c.Name())
	if err != nil {
		return "", errors.Wrapf(err, "cannot package %s", c.Path)
	}

	filename := filepath.Join(outDir, c.FullName()+chart.ArchiveExtension)
	if err := fileutil.AtomicWriteFile(filename, buf, 0644); err != nil {
		return "", errors.Wrapf(err, "cannot write archive %s", filename)
	}
	return filename, nil
}

// compressDir tars and gzips the tree rooted at src into a buffer, with
// every entry name placed under prefix.
func compressDir(src, prefix string) (*bytes.Buffer, error) {
	buf := bytes.NewBuffer(nil)
	zipper := gzip.NewWriter(buf)
	twriter := tar.NewWriter(zipper)

	walkErr := filepath.Walk(src, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, file)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		// sockets, devices and symlinks have no place in a chart archive
		if !fi.Mode().IsRegular() && !fi.IsDir() {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(prefix, rel))
		if fi.IsDir() {
			header.Name += "/"
		}
		if err := twriter.WriteHeader(header); err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		data, err := os.Open(file)
		if err != nil {
			return err
		}
		defer data.Close()
		_, err = io.Copy(twriter, data)
		return err
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if err := twriter.Close(); err != nil {
		return nil, err
	}
	if err := zipper.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// validateName rejects chart names that would escape their directory when
// used as a path component.
func validateName(name string) error {
	if filepath.Base(name) != name {
		return ErrInvalidChartName{name}
	}
	return nil
}
