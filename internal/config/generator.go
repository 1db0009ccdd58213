package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator generates Lua settings code from Settings.
type Generator struct {
	indent string // Indentation string (default: two spaces)
	now    func() time.Time
}

// NewGenerator creates a new Lua settings generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate renders s as a settings file that ParseString reads back to an
// equal value. Fields holding their default are written commented out.
func (g *Generator) Generate(s *Settings) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	d := Defaults()

	var buf bytes.Buffer
	buf.WriteString("-- fmtsync settings\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalSettings)
	buf.WriteString(" = {\n")

	g.writeString(&buf, luaFieldTool, s.Tool, d.Tool)
	g.writeString(&buf, luaFieldRepository, s.Repository, d.Repository)
	g.writeString(&buf, luaFieldAPIURL, s.APIURL, d.APIURL)
	g.writeString(&buf, luaFieldVersionPrefix, s.VersionPrefix, d.VersionPrefix)
	buf.WriteString("\n")

	g.writeString(&buf, luaFieldVersion, s.DesiredVersion(), d.Version)
	g.writeBool(&buf, luaFieldDisableCheck, s.DisableVersionCheck, d.DisableVersionCheck)
	g.writeBool(&buf, luaFieldSearchPath, s.SearchPath, d.SearchPath)
	buf.WriteString("\n")

	g.writeString(&buf, luaFieldPath, s.Path, "")
	g.writeString(&buf, luaFieldSecondaryPath, s.SecondaryPath, "")
	g.writeString(&buf, luaFieldSecondaryTool, s.SecondaryTool, "")
	g.writeString(&buf, luaFieldKeyring, s.Keyring, "")

	if len(s.Args) > 0 {
		buf.WriteString(g.indent)
		buf.WriteString(luaFieldArgs)
		buf.WriteString(" = { ")
		for i, arg := range s.Args {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(g.quoteLuaString(arg))
		}
		buf.WriteString(" },\n")
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// writeString writes name = value, commented out when value equals def.
func (g *Generator) writeString(buf *bytes.Buffer, name, value, def string) {
	buf.WriteString(g.indent)
	if value == def {
		buf.WriteString("-- ")
		value = def
	}
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(g.quoteLuaString(value))
	buf.WriteString(",\n")
}

// writeBool writes name = value, commented out when value equals def.
func (g *Generator) writeBool(buf *bytes.Buffer, name string, value, def bool) {
	buf.WriteString(g.indent)
	if value == def {
		buf.WriteString("-- ")
	}
	buf.WriteString(fmt.Sprintf("%s = %t,\n", name, value))
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
