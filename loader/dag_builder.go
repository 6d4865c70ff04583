// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"sort"

	"github.com/linuxdeepin/go-lib/log"
)

// DAGBuilder collects the modules to enable with their dependencies and
// orders them.
type DAGBuilder struct {
	modules         Modules
	enablingModules []string
	disableModules  map[string]struct{}
	flag            EnableFlag

	log *log.Logger

	// module name to the names of the modules it depends on
	edges map[string][]string
}

func NewDAGBuilder(loader *Loader, enablingModules []string, disableModules []string, flag EnableFlag) *DAGBuilder {
	disableModulesMap := map[string]struct{}{}
	for _, name := range disableModules {
		if _, ok := loader.modules[name]; !ok {
			loader.log.Warningf("disabled module(%s) does not exist", name)
			continue
		}
		disableModulesMap[name] = struct{}{}
	}

	return &DAGBuilder{
		modules:         loader.modules,
		enablingModules: enablingModules,
		disableModules:  disableModulesMap,
		flag:            flag,
		log:             loader.log,
		edges:           make(map[string][]string),
	}
}

func (builder *DAGBuilder) buildDAG() error {
	queue := make([]string, 0, len(builder.enablingModules))
	seen := make(map[string]bool)
	for _, name := range builder.enablingModules {
		if !seen[name] {
			seen[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) != 0 {
		name := queue[0]
		queue = queue[1:]
		module, ok := builder.modules[name]
		if !ok {
			if builder.flag.HasFlag(EnableFlagIgnoreMissingModule) {
				builder.log.Info("no such a module named", name)
				continue
			}
			return &EnableError{ModuleName: name, Code: ErrorMissingModule}
		}
		if _, ok := builder.disableModules[name]; ok {
			if !builder.flag.HasFlag(EnableFlagForceStart) {
				return &EnableError{ModuleName: name, Code: ErrorConflict}
			}
		}

		var deps []string
		for _, dependency := range module.GetDependencies() {
			if _, ok := builder.modules[dependency]; !ok &&
				builder.flag.HasFlag(EnableFlagIgnoreMissingModule) {
				builder.log.Infof("%s: ignore missing dependency %s", name, dependency)
				continue
			}
			deps = append(deps, dependency)
			if !seen[dependency] {
				seen[dependency] = true
				queue = append(queue, dependency)
			}
		}
		builder.edges[name] = deps
	}
	return nil
}

// topologicalSort returns every node after its dependencies. Independent
// nodes come in name order.
func (builder *DAGBuilder) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(builder.edges))
	dependents := make(map[string][]string)
	for name, deps := range builder.edges {
		inDegree[name] += 0
		for _, dep := range deps {
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	result := make([]string, 0, len(inDegree))
	for len(ready) != 0 {
		name := ready[0]
		ready = ready[1:]
		result = append(result, name)

		var next []string
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}

	if len(result) != len(inDegree) {
		for _, name := range sortedKeys(inDegree) {
			if inDegree[name] > 0 {
				return nil, &EnableError{ModuleName: name, Code: ErrorCircleDependencies}
			}
		}
	}
	return result, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Execute returns the module names in enabling order.
func (builder *DAGBuilder) Execute() ([]string, error) {
	err := builder.buildDAG()
	if err != nil {
		return nil, err
	}
	return builder.topologicalSort()
}
