// Package config loads fmtsync settings from a sandboxed Lua file.
//
// The file assigns a global "fmtsync" table:
//
//	fmtsync = {
//	  tool = "stylua",
//	  repository = "JohnnyMorganz/StyLua",
//	  version = "0.20.0",           -- or "latest"
//	  search_path = true,
//	  path = platform.is_windows and "C:/tools/stylua.exe" or nil,
//	  disable_version_check = false,
//	}
//
// A read-only "platform" table describing the host is available while the
// file runs. Code runs in a gopher-lua VM with os, io, module loading and
// debug facilities removed, under a deadline.
//
// A missing file is not an error: Load returns Defaults.
package config
