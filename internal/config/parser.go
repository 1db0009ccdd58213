package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/platform"
)

// Parser represents a Lua settings parser with platform detection.
type Parser struct {
	detector platform.Detector
	log      logging.Logger
}

// NewParser creates a new settings parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, log: logging.Noop()}
}

// WithLogger sets the logger and returns the parser.
func (p *Parser) WithLogger(l logging.Logger) *Parser {
	p.log = logging.OrNoop(l)
	return p
}

// ParseFile reads settings from path. A missing file yields Defaults.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Settings, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		p.log.Debug("no settings file, using defaults", "path", path)
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat settings: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, &ParseError{
			Message: "settings file too large",
			Detail:  fmt.Sprintf("%s is %d bytes, maximum is %d", path, info.Size(), MaxConfigSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	for _, f := range DetectSecrets(string(data)) {
		p.log.Warn("possible credential in settings file, use GITHUB_TOKEN or --token instead",
			"path", path, "line", f.Line, "kind", f.Kind, "preview", f.Preview)
	}

	settings, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, err
	}
	p.log.Debug("loaded settings", "path", path, "tool", settings.Tool, "version", settings.Version)
	return settings, nil
}

// ParseString parses Lua settings from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Settings, error) {
	if len(luaCode) > MaxConfigSize {
		return nil, &ParseError{
			Message: "settings too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxConfigSize),
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	// Detect platform and inject platform table
	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ParseError{Message: "settings evaluation timed out", Detail: ctxErr.Error()}
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractSettings(L)
}

// ParseError represents a settings parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractSettings reads the global "fmtsync" table over Defaults. Fields of
// the wrong type are ignored.
func extractSettings(L *lua.LState) (*Settings, error) {
	global := L.GetGlobal(luaGlobalSettings)
	if global.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid '" + luaGlobalSettings + "' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}
	table := global.(*lua.LTable)

	s := Defaults()
	stringField(table, luaFieldTool, &s.Tool)
	stringField(table, luaFieldRepository, &s.Repository)
	stringField(table, luaFieldAPIURL, &s.APIURL)
	stringField(table, luaFieldVersionPrefix, &s.VersionPrefix)
	stringField(table, luaFieldPath, &s.Path)
	stringField(table, luaFieldSecondaryPath, &s.SecondaryPath)
	stringField(table, luaFieldSecondaryTool, &s.SecondaryTool)
	stringField(table, luaFieldKeyring, &s.Keyring)
	boolField(table, luaFieldSearchPath, &s.SearchPath)
	boolField(table, luaFieldDisableCheck, &s.DisableVersionCheck)

	// version supersedes the legacy release_version
	var desired, legacy string
	stringField(table, luaFieldVersion, &desired)
	stringField(table, luaFieldReleaseVersion, &legacy)
	switch {
	case strings.TrimSpace(desired) != "":
		s.Version = strings.TrimSpace(desired)
	case strings.TrimSpace(legacy) != "":
		s.Version = strings.TrimSpace(legacy)
	}

	if argsVal := table.RawGetString(luaFieldArgs); argsVal.Type() == lua.LTTable {
		s.Args = extractArgs(argsVal.(*lua.LTable))
	}

	if err := s.Validate(); err != nil {
		return nil, &ParseError{
			Message: "settings validation failed",
			Detail:  err.Error(),
		}
	}

	return s, nil
}

func stringField(table *lua.LTable, name string, dst *string) {
	if v := table.RawGetString(name); v.Type() == lua.LTString {
		*dst = v.String()
	}
}

func boolField(table *lua.LTable, name string, dst *bool) {
	if v := table.RawGetString(name); v.Type() == lua.LTBool {
		*dst = bool(v.(lua.LBool))
	}
}

// extractArgs reads the array part of table, skipping nil holes left by
// platform conditionals and non-string values.
func extractArgs(table *lua.LTable) []string {
	var args []string
	for i := 1; i <= table.MaxN(); i++ {
		if v := table.RawGetInt(i); v.Type() == lua.LTString {
			args = append(args, v.String())
		}
	}
	return args
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
