package script

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
)

const (
	// arrayMetaName is the registry name of the metatable that marks a
	// table as a JSON array, so empty arrays do not come back as objects.
	arrayMetaName = "flux.array"
	arrayMetaKey  = "__jsonarray"

	// nullKey is the registry key of the userdata standing for JSON null.
	nullKey = "flux.null"

	// maxExactInt bounds the integers a Lua number holds exactly.
	maxExactInt = 1 << 53
)

// newArray returns an empty table marked as a JSON array.
func newArray(L *lua.LState, n int) *lua.LTable {
	t := L.CreateTable(n, 0)
	L.SetMetatable(t, arrayMeta(L))
	return t
}

func arrayMeta(L *lua.LState) *lua.LTable {
	mt := L.NewTypeMetatable(arrayMetaName)
	mt.RawSetString(arrayMetaKey, lua.LTrue)
	return mt
}

func isMarkedArray(t *lua.LTable) bool {
	mt, ok := t.Metatable.(*lua.LTable)
	return ok && mt.RawGetString(arrayMetaKey) == lua.LTrue
}

// jsonNull returns the userdata that stands for JSON null. Lua tables cannot
// hold nil, so null members would otherwise vanish.
func jsonNull(L *lua.LState) *lua.LUserData {
	if ud, ok := L.G.Registry.RawGetString(nullKey).(*lua.LUserData); ok {
		return ud
	}
	ud := L.NewUserData()
	L.G.Registry.RawSetString(nullKey, ud)
	return ud
}

// resultToLua converts a JSON value to Lua without an intermediate Go value,
// so arrays, nulls and wide integers survive unchanged.
func resultToLua(L *lua.LState, r gjson.Result) lua.LValue {
	switch {
	case r.IsArray():
		items := r.Array()
		t := newArray(L, len(items))
		for i, item := range items {
			t.RawSetInt(i+1, resultToLua(L, item))
		}
		return t
	case r.IsObject():
		t := L.CreateTable(0, 0)
		r.ForEach(func(k, v gjson.Result) bool {
			t.RawSetString(k.String(), resultToLua(L, v))
			return true
		})
		return t
	}

	switch r.Type {
	case gjson.Null:
		return jsonNull(L)
	case gjson.False:
		return lua.LFalse
	case gjson.True:
		return lua.LTrue
	case gjson.String:
		return lua.LString(r.Str)
	case gjson.Number:
		if exactNumber(r.Raw) {
			return lua.LNumber(r.Num)
		}
		// Kept as text; arithmetic on it fails, passing it through does not.
		ud := L.NewUserData()
		ud.Value = json.Number(r.Raw)
		return ud
	default:
		return lua.LNil
	}
}

// exactNumber reports whether the JSON number raw survives a float64.
// Fractions and exponents are taken as floats already.
func exactNumber(raw string) bool {
	if strings.ContainsAny(raw, ".eE") {
		return true
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return i >= -maxExactInt && i <= maxExactInt
}

// toGo converts a Lua value to a Go value. Integral numbers become int64,
// marked tables and sequences become []any and other tables map[string]any.
// Functions and cyclic references become nil.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f >= -maxExactInt && f <= maxExactInt && f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	// A table is a sequence when its keys are exactly 1..n.
	n := 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		n++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != float64(int(kn)) || int(kn) < 1 {
			isArray = false
		}
	})
	for i := 1; isArray && i <= n; i++ {
		if t.RawGetInt(i) == lua.LNil {
			isArray = false
		}
	}
	if isArray && (n > 0 || isMarkedArray(t)) {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, n)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoVisited(v, visited)
	})
	return m
}

// toLua converts a Go value to a Lua value. Values of other types are
// converted through their JSON encoding.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case gjson.Result:
		return resultToLua(L, val)
	case []any:
		t := newArray(L, len(val))
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case []string:
		t := newArray(L, len(val))
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		data, err := json.Marshal(val)
		if err != nil {
			ud := L.NewUserData()
			ud.Value = v
			return ud
		}
		return resultToLua(L, gjson.ParseBytes(data))
	}
}
