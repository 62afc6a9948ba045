package gopherlua

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lua "github.com/yuin/gopher-lua"
)

// libraries are the host libraries OpenLibrary knows about.
var libraries = map[string]lua.LGFunction{
	"lfs": openLFS,
}

// LFSVersion is the _VERSION field of the lfs table.
const LFSVersion = "LuaFileSystem 1.8.0 (ntb)"

var lfsFuncs = map[string]lua.LGFunction{
	"attributes":        lfsAttributes,
	"symlinkattributes": lfsSymlinkAttributes,
	"currentdir":        lfsCurrentDir,
	"chdir":             lfsChdir,
	"mkdir":             lfsMkdir,
	"rmdir":             lfsRmdir,
	"dir":               lfsDir,
	"touch":             lfsTouch,
	"glob":              lfsGlob,
}

// openLFS builds the lfs table: a LuaFileSystem-compatible subset plus glob.
func openLFS(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), lfsFuncs)
	L.SetField(mod, "_VERSION", lua.LString(LFSVersion))
	L.Push(mod)
	return 1
}

// pushFailure follows the LuaFileSystem convention of returning nil and a message.
func pushFailure(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func pushSuccess(L *lua.LState, err error) int {
	if err != nil {
		return pushFailure(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func lfsCurrentDir(L *lua.LState) int {
	wd, err := os.Getwd()
	if err != nil {
		return pushFailure(L, err)
	}
	L.Push(lua.LString(wd))
	return 1
}

func lfsChdir(L *lua.LState) int {
	return pushSuccess(L, os.Chdir(L.CheckString(1)))
}

func lfsMkdir(L *lua.LState) int {
	return pushSuccess(L, os.Mkdir(L.CheckString(1), 0o777))
}

func lfsRmdir(L *lua.LState) int {
	path := L.CheckString(1)
	fi, err := os.Lstat(path)
	if err != nil {
		return pushFailure(L, err)
	}
	if !fi.IsDir() {
		return pushFailure(L, fmt.Errorf("%s: Not a directory", path))
	}
	return pushSuccess(L, os.Remove(path))
}

func lfsTouch(L *lua.LState) int {
	path := L.CheckString(1)
	now := time.Now()
	atime := time.Unix(int64(L.OptNumber(2, lua.LNumber(now.Unix()))), 0)
	mtime := time.Unix(int64(L.OptNumber(3, lua.LNumber(atime.Unix()))), 0)
	return pushSuccess(L, os.Chtimes(path, atime, mtime))
}

// lfsDir returns an iterator over the entries of a directory, "." and ".." included.
func lfsDir(L *lua.LState) int {
	path := L.CheckString(1)
	entries, err := os.ReadDir(path)
	if err != nil {
		L.RaiseError("cannot open %s: %v", path, err)
		return 0
	}

	names := make([]string, 0, len(entries)+2)
	names = append(names, ".", "..")
	for _, e := range entries {
		names = append(names, e.Name())
	}

	i := 0
	L.Push(L.NewFunction(func(L *lua.LState) int {
		if i >= len(names) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(names[i]))
		i++
		return 1
	}))
	return 1
}

func lfsAttributes(L *lua.LState) int {
	return pushAttributes(L, os.Stat)
}

func lfsSymlinkAttributes(L *lua.LState) int {
	return pushAttributes(L, os.Lstat)
}

func pushAttributes(L *lua.LState, stat func(string) (fs.FileInfo, error)) int {
	path := L.CheckString(1)
	fi, err := stat(path)
	if err != nil {
		return pushFailure(L, fmt.Errorf("cannot obtain information from file '%s': %w", path, err))
	}

	attrs := map[string]lua.LValue{
		"mode":         lua.LString(modeName(fi.Mode())),
		"size":         lua.LNumber(fi.Size()),
		"modification": lua.LNumber(fi.ModTime().Unix()),
		"permissions":  lua.LString(fi.Mode().Perm().String()[1:]),
	}
	if fi.Mode()&fs.ModeSymlink != 0 {
		if target, err := os.Readlink(path); err == nil {
			attrs["target"] = lua.LString(target)
		}
	}

	switch arg := L.Get(2).(type) {
	case lua.LString:
		v, ok := attrs[string(arg)]
		if !ok {
			L.ArgError(2, fmt.Sprintf("invalid attribute name '%s'", string(arg)))
			return 0
		}
		L.Push(v)
	case *lua.LTable:
		fillTable(arg, attrs)
		L.Push(arg)
	default:
		L.Push(fillTable(L.NewTable(), attrs))
	}
	return 1
}

func fillTable(tbl *lua.LTable, attrs map[string]lua.LValue) *lua.LTable {
	for k, v := range attrs {
		tbl.RawSetString(k, v)
	}
	return tbl
}

func modeName(m fs.FileMode) string {
	switch {
	case m.IsRegular():
		return "file"
	case m.IsDir():
		return "directory"
	case m&fs.ModeSymlink != 0:
		return "link"
	case m&fs.ModeSocket != 0:
		return "socket"
	case m&fs.ModeNamedPipe != 0:
		return "named pipe"
	case m&fs.ModeCharDevice != 0:
		return "char device"
	case m&fs.ModeDevice != 0:
		return "block device"
	default:
		return "other"
	}
}

// lfsGlob returns the sorted paths matching a doublestar pattern ("src/**/*.c").
func lfsGlob(L *lua.LState) int {
	pattern := L.CheckString(1)
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return pushFailure(L, fmt.Errorf("bad pattern '%s': %w", pattern, err))
	}
	sort.Strings(matches)

	tbl := L.CreateTable(len(matches), 0)
	for i, m := range matches {
		tbl.RawSetInt(i+1, lua.LString(m))
	}
	L.Push(tbl)
	return 1
}
