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

package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	if err := AtomicWriteFile(target, bytes.NewBufferString("hello"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile error: %s", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("Expected file content hello, got %q", got)
	}

	fi, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode() != 0644 {
		t.Errorf("Expected mode 0644, got %v", fi.Mode())
	}

	// overwriting an existing file must succeed and leave no temp files behind
	if err := AtomicWriteFile(target, bytes.NewBufferString("replaced"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile overwrite error: %s", err)
	}
	got, _ = os.ReadFile(target)
	if string(got) != "replaced" {
		t.Errorf("Expected file content replaced, got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected a single file in %s, found %d entries", dir, len(entries))
	}
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "templates"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "Chart.yaml"), []byte("name: x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "templates", "svc.yaml"), []byte("kind: Service"), 0600); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir error: %s", err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "templates", "svc.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kind: Service" {
		t.Errorf("Expected copied content, got %q", got)
	}

	fi, err := os.Stat(filepath.Join(dst, "templates", "svc.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode() != 0600 {
		t.Errorf("Expected mode 0600 preserved, got %v", fi.Mode())
	}
}
