package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{OS: "windows", Arch: "arm64", ArchRaw: "aarch64"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable failed: %v", err)
	}

	code := `
		result_os = platform.os
		result_win = platform.is_windows
		result_when = platform.when(platform.is_arm64, "native")
		result_skip = platform.when(platform.is_linux, "nope")
	`
	if err := L.DoString(code); err != nil {
		t.Fatalf("lua error: %v", err)
	}

	if got := L.GetGlobal("result_os").String(); got != "windows" {
		t.Errorf("os = %q", got)
	}
	if got := L.GetGlobal("result_win"); got != lua.LTrue {
		t.Errorf("is_windows = %v", got)
	}
	if got := L.GetGlobal("result_when").String(); got != "native" {
		t.Errorf("when = %q", got)
	}
	if got := L.GetGlobal("result_skip"); got != lua.LNil {
		t.Errorf("when(false) = %v, want nil", got)
	}
}

func TestPlatformTableReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "linux", Arch: "amd64"}); err != nil {
		t.Fatal(err)
	}

	err := L.DoString(`platform.os = "darwin"`)
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected read-only error, got %v", err)
	}
}
