package plugin

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/plugsh/plugsh"
	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/errors"
)

// Plugin is one successfully loaded plugin: its immutable info and the Host
// owning its sandbox. The Registry is the exclusive owner.
type Plugin struct {
	Info plugsh.PluginInfo
	Host *Host
}

// Registry holds the set of loaded plugins keyed by name.
type Registry struct {
	plugins map[string]*Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Plugin)}
}

// initCaps wraps the session capabilities for the duration of one init call:
// log forwards unchanged, legacy define_cmd declarations are collected and
// appended after the declarative list.
type initCaps struct {
	caps  plugsh.Capabilities
	decls []plugsh.CommandDecl
}

func (c *initCaps) Log(level plugsh.Level, message string) {
	c.caps.Log(level, message)
}

func (c *initCaps) DefineCommand(name, usage, description string) {
	c.decls = append(c.decls, plugsh.CommandDecl{
		Name:        name,
		Usage:       usage,
		Description: description,
	})
}

// Load runs the full load protocol: compile, link, instantiate, init,
// conflict check, insert. On any failure the new instance is discarded and
// the registry is exactly as it was before the attempt. An existing plugin
// with the same name keeps running; the load is rejected.
func (r *Registry) Load(ctx context.Context, eng *engine.Engine, path string, caps plugsh.Capabilities) (*Plugin, error) {
	host, err := New(ctx, eng, path)
	if err != nil {
		return nil, err
	}

	ic := &initCaps{caps: caps}
	info, err := host.CallInit(ctx, ic)
	if err != nil {
		host.Close(ctx)
		return nil, err
	}
	info.Commands = append(info.Commands, ic.decls...)

	if _, exists := r.plugins[info.Name]; exists {
		host.Close(ctx)
		return nil, errors.PluginConflict(info.Name)
	}

	p := &Plugin{Info: info, Host: host}
	r.plugins[info.Name] = p
	engine.Logger().Info("plugin loaded",
		zap.String("plugin", info.Name),
		zap.String("path", path))
	return p, nil
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (*Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int {
	return len(r.plugins)
}

// All returns every loaded plugin sorted by name.
func (r *Registry) All() []*Plugin {
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Info.Name < out[j].Info.Name })
	return out
}
