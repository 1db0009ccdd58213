package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalSettings      = "fmtsync"
	luaFieldTool           = "tool"
	luaFieldRepository     = "repository"
	luaFieldAPIURL         = "api_url"
	luaFieldVersionPrefix  = "version_prefix"
	luaFieldPath           = "path"
	luaFieldSecondaryPath  = "secondary_path"
	luaFieldSecondaryTool  = "secondary_tool"
	luaFieldSearchPath     = "search_path"
	luaFieldVersion        = "version"
	luaFieldReleaseVersion = "release_version"
	luaFieldDisableCheck   = "disable_version_check"
	luaFieldKeyring        = "keyring"
	luaFieldArgs           = "args"
)

// Defaults for the managed formatter.
const (
	DefaultTool          = "stylua"
	DefaultRepository    = "JohnnyMorganz/StyLua"
	DefaultAPIURL        = "https://api.github.com"
	DefaultVersionPrefix = "stylua "
	DefaultFileName      = "fmtsync.lua"
)

// Resource limits
const (
	// MaxConfigSize bounds the size of a settings file.
	MaxConfigSize = 1 << 20
	// DefaultParseTimeout applies when the context has no deadline.
	DefaultParseTimeout = 5 * time.Second
	// maxCallStackSize bounds Lua recursion.
	maxCallStackSize = 256
	// maxStringLength bounds every string setting.
	maxStringLength = 4096
)
