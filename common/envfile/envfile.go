// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package envfile reads and writes the KEY=value files the greeter hands over
// to the session that starts after login.
package envfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/linuxdeepin/go-lib/encoding/kv"
	"golang.org/x/xerrors"
)

// Mode of every file written by the greeter, they may contain secrets.
const Mode os.FileMode = 0600

type entry struct {
	key   string
	value string
}

// File is an ordered set of KEY=value lines.
type File struct {
	entries []entry
}

func New() *File {
	return &File{}
}

// Set appends key with value written verbatim.
func (f *File) Set(key, value string) *File {
	f.entries = append(f.entries, entry{key: key, value: value})
	return f
}

// SetQuoted appends key with value quoted for a POSIX shell.
func (f *File) SetQuoted(key, value string) *File {
	return f.Set(key, Quote(value))
}

func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	for _, e := range f.entries {
		buf.WriteString(fmt.Sprintf("%s=%s\n", e.key, e.value))
	}
	return buf.Bytes()
}

// Save replaces filename with the content of f. The file is created with
// Mode before any byte is written to it.
func (f *File) Save(filename string) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".")
	if err != nil {
		return xerrors.Errorf("create temporary file for %s: %w", filename, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	err = tmp.Chmod(Mode)
	if err == nil {
		_, err = tmp.Write(f.Bytes())
	}
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return xerrors.Errorf("write %s: %w", filename, err)
	}

	err = os.Rename(tmpName, filename)
	if err != nil {
		return xerrors.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}

// Remove deletes filename, a missing file is not an error.
func Remove(filename string) error {
	err := os.Remove(filename)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Load reads a file written by Save and returns its values unquoted.
func Load(filename string) (map[string]string, error) {
	fh, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

func Read(r io.Reader) (map[string]string, error) {
	reader := kv.NewReader(r)
	reader.Delim = '='
	reader.Comment = '#'
	reader.TrimSpace = kv.TrimLeadingTailingSpace

	result := make(map[string]string)
	for {
		pair, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		result[pair.Key] = unquote(pair.Value)
	}
	return result, nil
}

func unquote(value string) string {
	if value == "" || !strings.ContainsAny(value, `'"\ `) {
		return value
	}
	fields, err := shlex.Split(value)
	if err != nil {
		return value
	}
	return strings.Join(fields, " ")
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./-_", r)
}

// Quote returns s quoted so that a POSIX shell reads it back as one word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
