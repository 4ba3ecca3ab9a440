package flex

import (
	"strconv"
	"strings"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/wegman-software/csv2osm-go/internal/coord"
	"github.com/wegman-software/csv2osm-go/internal/locale"
)

// String helpers that map one string to another
var stringTransforms = map[string]func(string) string{
	"trim":         strings.TrimSpace,
	"lower":        strings.ToLower,
	"upper":        strings.ToUpper,
	"clean_spaces": func(s string) string { return strings.Join(strings.Fields(s), " ") },
}

// Values parse_bool reads as true or false; anything else non-empty is true
var (
	boolTrue  = map[string]bool{"yes": true, "true": true, "1": true, "on": true, "sim": true, "s": true}
	boolFalse = map[string]bool{"no": true, "false": true, "0": true, "off": true, "não": true, "nao": true, "n": true, "": true}
)

// RegisterTransforms registers the row helper functions under
// csv2osm.transforms. Number parsing uses sep.
func RegisterTransforms(L *lua.LState, sep locale.Separators) {
	transforms := L.NewTable()

	for name, fn := range stringTransforms {
		L.SetField(transforms, name, L.NewFunction(stringFunc(fn)))
	}
	L.SetField(transforms, "truncate", L.NewFunction(luaTruncate))

	L.SetField(transforms, "parse_int", L.NewFunction(luaParseInt(sep)))
	L.SetField(transforms, "parse_real", L.NewFunction(luaParseReal(sep)))
	L.SetField(transforms, "parse_bool", L.NewFunction(luaParseBool))
	L.SetField(transforms, "parse_coordinate", L.NewFunction(luaParseCoordinate(sep)))

	// Column lookups
	L.SetField(transforms, "coalesce", L.NewFunction(luaCoalesce))
	L.SetField(transforms, "select_columns", L.NewFunction(luaSelectColumns))

	module, ok := L.GetGlobal(moduleName).(*lua.LTable)
	if !ok {
		module = L.NewTable()
		L.SetGlobal(moduleName, module)
	}
	L.SetField(module, "transforms", transforms)
}

func stringFunc(fn func(string) string) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LString(fn(L.CheckString(1))))
		return 1
	}
}

// luaTruncate cuts a string to at most n runes
func luaTruncate(L *lua.LState) int {
	s := L.CheckString(1)
	n := L.CheckInt(2)

	if n < 0 || utf8.RuneCountInString(s) <= n {
		L.Push(lua.LString(s))
		return 1
	}
	end := 0
	for i := 0; i < n; i++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	L.Push(lua.LString(s[:end]))
	return 1
}

// luaParseInt parses an integer written in the input locale, truncating
// decimals. The optional second argument is returned on failure.
func luaParseInt(sep locale.Separators) lua.LGFunction {
	return func(L *lua.LState) int {
		s := strings.TrimSpace(L.CheckString(1))
		defaultVal := lua.LValue(lua.LNumber(0))
		if L.GetTop() >= 2 {
			defaultVal = L.Get(2)
		}

		if val, err := strconv.ParseInt(sep.Delocalize(s), 10, 64); err == nil {
			L.Push(lua.LNumber(val))
		} else if fval, err := coord.ParseDecimal(s, sep); err == nil {
			L.Push(lua.LNumber(int64(fval)))
		} else {
			L.Push(defaultVal)
		}
		return 1
	}
}

// luaParseReal parses a number written in the input locale
func luaParseReal(sep locale.Separators) lua.LGFunction {
	return func(L *lua.LState) int {
		s := L.CheckString(1)
		defaultVal := lua.LValue(lua.LNumber(0))
		if L.GetTop() >= 2 {
			defaultVal = L.Get(2)
		}

		if val, err := coord.ParseDecimal(s, sep); err == nil {
			L.Push(lua.LNumber(val))
		} else {
			L.Push(defaultVal)
		}
		return 1
	}
}

// luaParseBool reads yes/no style values, Portuguese included
func luaParseBool(L *lua.LState) int {
	s := strings.ToLower(strings.TrimSpace(L.CheckString(1)))
	switch {
	case boolTrue[s]:
		L.Push(lua.LTrue)
	case boolFalse[s]:
		L.Push(lua.LFalse)
	default:
		L.Push(lua.LTrue)
	}
	return 1
}

// luaParseCoordinate parses a decimal or DMS coordinate.
// Returns the value in degrees and "decimal" or "dms", or nil.
func luaParseCoordinate(sep locale.Separators) lua.LGFunction {
	return func(L *lua.LState) int {
		res, err := coord.Parse(L.CheckString(1), sep)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(res.Value))
		L.Push(lua.LString(res.Kind.String()))
		return 2
	}
}

// luaCoalesce returns the first non-blank value among the named columns,
// trimmed, or nil.
// Usage: coalesce(tags, "NOME", "nome_fantasia", "razao_social")
func luaCoalesce(L *lua.LState) int {
	tags := L.CheckTable(1)
	for i := 2; i <= L.GetTop(); i++ {
		if s := strings.TrimSpace(lua.LVAsString(tags.RawGetString(L.CheckString(i)))); s != "" {
			L.Push(lua.LString(s))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

// luaSelectColumns builds a new tag table from chosen columns. Array
// entries keep a column under its own name; keyed entries rename it.
// Usage: select_columns(tags, {"amenity", NOME = "name", TEL = "phone"})
func luaSelectColumns(L *lua.LState) int {
	tags := L.CheckTable(1)
	spec := L.CheckTable(2)

	result := L.NewTable()
	spec.ForEach(func(k, v lua.LValue) {
		column, key := lua.LVAsString(v), lua.LVAsString(v)
		if name, ok := k.(lua.LString); ok {
			column = string(name)
		}
		if column == "" || key == "" {
			return
		}
		if value := tags.RawGetString(column); value != lua.LNil {
			result.RawSetString(key, value)
		}
	})

	L.Push(result)
	return 1
}
