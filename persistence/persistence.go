// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package persistence unlocks the encrypted persistent volume and activates
// it through live-persist.
package persistence

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/utils"
	"golang.org/x/xerrors"

	"gitlab.tails.boum.org/tails/greeter/common/envfile"
)

const (
	cmdSudo       = "/usr/bin/sudo"
	cmdCryptsetup = "/sbin/cryptsetup"

	containerLabel = "TailsData"
	mapperDir      = "/dev/mapper"
	unlockedSuffix = "_unlocked"
)

var logger = log.NewLogger("greeter/persistence")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

type Config struct {
	LivePersist        string
	LivePersistLogFile string
	StateFile          string
}

type Settings struct {
	cfg        Config
	runner     Runner
	fileExists func(string) bool

	mu       sync.Mutex
	active   bool
	readOnly bool
}

func NewSettings(cfg Config) *Settings {
	return &Settings{
		cfg:        cfg,
		runner:     execRunner{},
		fileExists: utils.IsFileExist,
	}
}

func (s *Settings) livePersistArgs(args ...string) []string {
	return append([]string{"-n", s.cfg.LivePersist}, args...)
}

// ListContainers returns the devices holding a persistent volume.
func (s *Settings) ListContainers(ctx context.Context) ([]string, error) {
	args := s.livePersistArgs("--log-file="+s.cfg.LivePersistLogFile,
		"--encryption=luks", "list", containerLabel)
	result, err := s.runner.Run(ctx, "", cmdSudo, args...)
	if err != nil {
		return nil, xerrors.Errorf("run live-persist: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, &LivePersistError{Result: *result}
	}

	var containers []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			containers = append(containers, line)
		}
	}
	logger.Debug("found containers:", containers)
	return containers, nil
}

// Activate unlocks device with passphrase, activates the persistent volume
// and records it in the state file read by the session.
func (s *Settings) Activate(ctx context.Context, device, passphrase string, readOnly bool) error {
	cleartext, err := s.UnlockDevice(ctx, device, passphrase)
	if err != nil {
		return err
	}
	logger.Debug("unlocked cleartext device:", cleartext)

	err = s.SetupPersistence(ctx, cleartext, readOnly)
	if err != nil {
		return err
	}

	state := envfile.New().Set("TAILS_PERSISTENCE_ENABLED", "true")
	if readOnly {
		state.Set("TAILS_PERSISTENCE_READONLY", "true")
	}
	err = state.Save(s.cfg.StateFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.active = true
	s.readOnly = readOnly
	s.mu.Unlock()
	return nil
}

// CleartextName returns the device-mapper name of the unlocked device.
func CleartextName(device string) string {
	return filepath.Base(device) + unlockedSuffix
}

// UnlockDevice opens the LUKS device and returns the cleartext device. An
// already unlocked device is returned as is.
func (s *Settings) UnlockDevice(ctx context.Context, device, passphrase string) (string, error) {
	name := CleartextName(device)
	cleartext := filepath.Join(mapperDir, name)
	if s.fileExists(cleartext) {
		logger.Debug(cleartext, "is already unlocked")
		return cleartext, nil
	}

	result, err := s.runner.Run(ctx, passphrase+"\n", cmdSudo,
		"-n", cmdCryptsetup, "luksOpen", "--tries", "1", device, name)
	if err != nil {
		return "", xerrors.Errorf("run cryptsetup: %w", err)
	}
	if result.ExitCode != 0 {
		logger.Debugf("cryptsetup failed with return code %d:\n%s\n%s",
			result.ExitCode, result.Stdout, result.Stderr)
		return "", &WrongPassphraseError{Result: *result}
	}
	return cleartext, nil
}

func (s *Settings) SetupPersistence(ctx context.Context, cleartext string, readOnly bool) error {
	mode := "--read-write"
	if readOnly {
		mode = "--read-only"
	}
	args := s.livePersistArgs(mode, "--log-file="+s.cfg.LivePersistLogFile, "activate", cleartext)
	result, err := s.runner.Run(ctx, "", cmdSudo, args...)
	if err != nil {
		return xerrors.Errorf("run live-persist: %w", err)
	}
	if result.ExitCode != 0 {
		return &LivePersistError{Result: *result}
	}
	return nil
}

// IsActive tells whether a persistent volume was activated, and how.
func (s *Settings) IsActive() (active, readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.readOnly
}
