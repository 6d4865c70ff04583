// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/gettext"
	"github.com/linuxdeepin/go-lib/log"

	"gitlab.tails.boum.org/tails/greeter/config"
	greeter "gitlab.tails.boum.org/tails/greeter/greeter1"
	"gitlab.tails.boum.org/tails/greeter/loader"
)

const (
	textDomain      = "tails-greeter"
	dbusServiceName = "org.boum.tails.Greeter1"
)

var logger = log.NewLogger("greeter/tails-greeter")

var _options struct {
	verbose    bool
	logLevel   string
	configFile string
	list       bool
}

func init() {
	// -v | -verbose
	const verboseUsage = "Show much more message, shorthand for --loglevel debug."
	flag.BoolVar(&_options.verbose, "v", false, verboseUsage)
	flag.BoolVar(&_options.verbose, "verbose", false, verboseUsage)

	// -l | -loglevel
	const logLevelUsage = "Set log level, possible value is error/warn/info/debug/no, info is default"
	flag.StringVar(&_options.logLevel, "l", "", logLevelUsage)
	flag.StringVar(&_options.logLevel, "loglevel", "", logLevelUsage)

	// -c | -config
	const configUsage = "Read settings from this key file."
	flag.StringVar(&_options.configFile, "c", config.DefaultFile, configUsage)
	flag.StringVar(&_options.configFile, "config", config.DefaultFile, configUsage)

	flag.BoolVar(&_options.list, "list", false, "List the modules and their dependencies.")
}

func toLogLevel(name string) (log.Priority, error) {
	name = strings.ToLower(name)
	logLevel := log.LevelInfo
	var err error
	switch name {
	case "":
	case "error":
		logLevel = log.LevelError
	case "warn":
		logLevel = log.LevelWarning
	case "info":
		logLevel = log.LevelInfo
	case "debug":
		logLevel = log.LevelDebug
	case "no":
		logLevel = log.LevelDisable
	default:
		err = fmt.Errorf("%s is not support", name)
	}

	return logLevel, err
}

func listModules() {
	modules := loader.List()
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Name() < modules[j].Name()
	})
	for _, m := range modules {
		fmt.Printf("%s: %s\n", m.Name(), strings.Join(m.GetDependencies(), " "))
	}
}

func main() {
	flag.Parse()
	gettext.InitI18n()
	gettext.BindTextdomainCodeset(textDomain, "UTF-8")
	gettext.Textdomain(textDomain)

	if _options.verbose {
		_options.logLevel = "debug"
	}
	logLevel, err := toLogLevel(_options.logLevel)
	if err != nil {
		logger.Warning("failed to parse loglevel:", err)
		os.Exit(1)
	}
	logger.SetLogLevel(logLevel)

	cfg, err := config.Load(_options.configFile)
	if err != nil {
		logger.Fatal(err)
	}

	greeter.Register(cfg)
	if _options.list {
		listModules()
		os.Exit(0)
	}

	service, err := dbusutil.NewSessionService()
	if err != nil {
		logger.Fatal("failed to new session service:", err)
	}

	hasOwner, err := service.NameHasOwner(dbusServiceName)
	if err != nil {
		logger.Fatal("failed to call NameHasOwner:", err)
	}
	if hasOwner {
		logger.Warningf("name %q already has the owner", dbusServiceName)
		os.Exit(1)
	}

	loader.SetService(service)
	loader.SetLogLevel(logLevel)
	greeter.SetLogLevel(logLevel)

	err = loader.StartAll()
	if err != nil {
		logger.Warning("failed to start modules:", err)
	}
	if m := loader.GetModule("greeter"); m == nil || !m.IsEnable() {
		_ = loader.StopAll()
		logger.Warning("greeter service not started")
		os.Exit(1)
	}
	defer func() {
		err := loader.StopAll()
		if err != nil {
			logger.Warning(err)
		}
	}()

	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warning("failed to notify systemd:", err)
	} else if !sent {
		logger.Debug("not started by systemd")
	}

	service.Wait()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	logger.Info("greeter finished")
}
