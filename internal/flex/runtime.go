// Package flex runs Lua tag translation scripts. A script defines
// csv2osm.process_row(tags, node) and returns the new tags, or nil to keep
// them unchanged.
package flex

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/paulmach/osm"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wegman-software/csv2osm-go/internal/locale"
	"github.com/wegman-software/csv2osm-go/internal/logger"
)

const (
	moduleName      = "csv2osm"
	processCallback = "process_row"
)

// ErrBadResult is returned when process_row returns something other
// than a table or nil
var ErrBadResult = errors.New("process_row must return a table or nil")

// Runtime manages the Lua interpreter and the csv2osm API
type Runtime struct {
	L          *lua.LState
	sep        locale.Separators
	log        *zap.Logger
	processRow lua.LValue
}

// NewRuntime creates a Lua runtime. Number helpers use sep.
func NewRuntime(sep locale.Separators) *Runtime {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	r := &Runtime{
		L:   L,
		sep: sep,
		log: logger.Get(),
	}

	r.registerAPI()
	return r
}

// SetLogger replaces the logger used by the Lua print function
func (r *Runtime) SetLogger(log *zap.Logger) {
	r.log = log
}

// Close releases Lua resources
func (r *Runtime) Close() {
	r.L.Close()
}

// registerAPI registers the csv2osm Lua API
func (r *Runtime) registerAPI() {
	module := r.L.NewTable()

	module.RawSetString("version", lua.LString("1.0.0"))
	module.RawSetString("decimal_separator", lua.LString(string(r.sep.Decimal)))
	if r.sep.Grouping != 0 {
		module.RawSetString("grouping_separator", lua.LString(string(r.sep.Grouping)))
	}

	r.L.SetGlobal(moduleName, module)

	RegisterTransforms(r.L, r.sep)

	// stdout carries the document, so print goes to the log
	r.L.SetGlobal("print", r.L.NewFunction(r.luaPrint))
}

// LoadFile loads and executes a Lua script file
func (r *Runtime) LoadFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua file: %w", err)
	}

	r.extractCallbacks()
	return nil
}

// LoadString loads and executes Lua code from a string (for testing)
func (r *Runtime) LoadString(code string) error {
	if err := r.L.DoString(code); err != nil {
		return fmt.Errorf("failed to load Lua code: %w", err)
	}

	r.extractCallbacks()
	return nil
}

func (r *Runtime) extractCallbacks() {
	module := r.L.GetGlobal(moduleName)
	if tbl, ok := module.(*lua.LTable); ok {
		r.processRow = tbl.RawGetString(processCallback)
	}
}

// HasProcessRow returns true if process_row callback is defined
func (r *Runtime) HasProcessRow() bool {
	return r.processRow != nil && r.processRow.Type() == lua.LTFunction
}

// Apply runs process_row on a node's tags. Keys kept from the input keep
// their order; new keys follow in sorted order. Empty values are dropped.
func (r *Runtime) Apply(node *osm.Node) (osm.Tags, error) {
	tags := node.Tags
	if !r.HasProcessRow() {
		return tags, nil
	}

	if err := r.L.CallByParam(lua.P{
		Fn:      r.processRow,
		NRet:    1,
		Protect: true,
	}, r.tagsToLua(tags), r.nodeToLua(node)); err != nil {
		return nil, fmt.Errorf("lua callback error: %w", err)
	}

	ret := r.L.Get(-1)
	r.L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return tags, nil
	case *lua.LTable:
		return luaToTags(v, tags), nil
	default:
		return nil, fmt.Errorf("%w, got %s", ErrBadResult, ret.Type())
	}
}

// FilterTags runs the script as a conversion tag filter
func (r *Runtime) FilterTags(node *osm.Node) (osm.Tags, error) {
	return r.Apply(node)
}

func (r *Runtime) tagsToLua(tags osm.Tags) *lua.LTable {
	tbl := r.L.CreateTable(0, len(tags))
	for _, tag := range tags {
		tbl.RawSetString(tag.Key, lua.LString(tag.Value))
	}
	return tbl
}

// nodeToLua exposes the node id and its WGS84 coordinates
func (r *Runtime) nodeToLua(node *osm.Node) *lua.LTable {
	tbl := r.L.CreateTable(0, 3)
	tbl.RawSetString("id", lua.LNumber(node.ID))
	tbl.RawSetString("lat", lua.LNumber(node.Lat))
	tbl.RawSetString("lon", lua.LNumber(node.Lon))
	return tbl
}

// luaToTags converts the returned table, ordering keys by their position
// in prev, then by name
func luaToTags(tbl *lua.LTable, prev osm.Tags) osm.Tags {
	values := make(map[string]string)
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || key == "" {
			return
		}
		if s := luaTagValue(v); s != "" {
			values[string(key)] = s
		}
	})

	out := make(osm.Tags, 0, len(values))
	for _, tag := range prev {
		if v, ok := values[tag.Key]; ok {
			out = append(out, osm.Tag{Key: tag.Key, Value: v})
			delete(values, tag.Key)
		}
	}

	added := make([]string, 0, len(values))
	for k := range values {
		added = append(added, k)
	}
	slices.Sort(added)
	for _, k := range added {
		out = append(out, osm.Tag{Key: k, Value: values[k]})
	}
	return out
}

// luaTagValue renders a Lua value as a tag value. Booleans become
// yes/no; tables and functions are ignored.
func luaTagValue(v lua.LValue) string {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return val.String()
	case lua.LBool:
		if val {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// luaPrint implements the print function for Lua
func (r *Runtime) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.log.Info(strings.Join(parts, "\t"), zap.String("source", "lua"))
	return 0
}
