/*
Package gopherlua implements the ntb script runtime on top of github.com/yuin/gopher-lua.

It prepares a Lua 5.1 state the way the host expects (standard libraries, host
primitives, the arg table, a package.path rooted next to the executable) and resolves
the entry module into a domain.EntryPoint.

# Interruption

Entries run with the caller's context attached to the state (LState.SetContext). The VM
checks the context before every instruction, so cancelling it aborts the script at the
next instruction boundary with domain.ErrInterrupted.

# Usage

	rt, err := gopherlua.New(gopherlua.WithPath("./build/?.lua"))
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Close()

	_ = rt.RegisterFunc("hash", digest.Hash)
	_ = rt.OpenLibrary("lfs")
	_ = rt.PublishArgs("arg", os.Args)

	err = rt.Entry("ntb.main").Run(ctx, nil)
*/
package gopherlua
