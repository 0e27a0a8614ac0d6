package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"diagtest/internal/procexec"
)

// VsArch is a Visual Studio architecture selector, used to source
// VsDevCmd.bat for each cl.exe build MSVC ships.
type VsArch string

const (
	VsArchX86 VsArch = "x86"
	VsArchX64 VsArch = "amd64"
)

// VsArches lists every architecture whose cl.exe is discovered.
var VsArches = []VsArch{VsArchX86, VsArchX64}

type vswhereInfo struct {
	InstallationPath    string
	InstallationVersion string
	DisplayName         string
}

// VSWhereLocator discovers MSVC installations via vswhere.exe. On
// non-Windows hosts it returns an empty result with no error (spec §4.C).
type VSWhereLocator struct{}

func vswherePath() string {
	programFiles := os.Getenv("ProgramFiles(x86)")
	if programFiles == "" {
		programFiles = `C:\Program Files (x86)`
	}
	return filepath.Join(programFiles, "Microsoft Visual Studio", "Installer", "vswhere.exe")
}

func runVswhere(ctx context.Context) (*vswhereInfo, error) {
	rpt, err := procexec.Invoke(ctx, "vswhere", vswherePath(), nil)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	for _, line := range strings.Split(rpt.Stdout, "\n") {
		for _, field := range []string{"installationPath", "installationVersion", "displayName"} {
			prefix := field + ": "
			if strings.HasPrefix(line, prefix) {
				fields[field] = strings.TrimPrefix(line, prefix)
			}
		}
	}
	return &vswhereInfo{
		InstallationPath:    fields["installationPath"],
		InstallationVersion: fields["installationVersion"],
		DisplayName:         fields["displayName"],
	}, nil
}

// vsDevCmdEnv sources VsDevCmd.bat -arch=<arch> and parses the resulting
// `set` dump into an environment map.
func vsDevCmdEnv(ctx context.Context, installationPath string, arch VsArch) (map[string]string, error) {
	setupScript := filepath.Join(installationPath, "Common7", "Tools", "VsDevCmd.bat")
	script := fmt.Sprintf(`"%s" -arch=%s >nul 2>&1 && set`, setupScript, arch)
	cmd := exec.CommandContext(ctx, "cmd.exe", "/s", "/c", script)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	env := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env, nil
}

func (VSWhereLocator) Locate(ctx context.Context) ([]string, error) {
	if runtime.GOOS != "windows" {
		return nil, nil
	}
	info, err := runVswhere(ctx)
	if err != nil {
		return nil, err
	}
	var executables []string
	for _, arch := range VsArches {
		env, err := vsDevCmdEnv(ctx, info.InstallationPath, arch)
		if err != nil {
			continue
		}
		cl, err := lookPathIn(env["Path"], "cl.exe")
		if err != nil {
			continue
		}
		executables = append(executables, cl)
	}
	return executables, nil
}

func lookPathIn(pathEnv, name string) (string, error) {
	for _, dir := range filepath.SplitList(pathEnv) {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found in given PATH", name)
}

var msvcVersionPattern = regexp.MustCompile(`Version (?P<version>[0-9.]+) for (?P<target>.*)`)

func probeMSVCVersion(ctx context.Context, path string) (Version, string, error) {
	rpt, err := procexec.Invoke(ctx, "version-probe", path, []string{"/help"})
	if err != nil {
		return nil, "", err
	}
	match := msvcVersionPattern.FindStringSubmatch(rpt.Stderr)
	if match == nil {
		return nil, "", &errInvalidVersion{raw: rpt.Stderr}
	}
	version, err := ParseVersion(match[1])
	if err != nil {
		return nil, "", err
	}
	return version, match[2], nil
}

var msvcStandardPattern = regexp.MustCompile(`/std:<(?P<standards>[^>]*)> (?P<language>\S+)`)

func msvcStandards(ctx context.Context, path string) (map[Dialect][]AliasGroup, error) {
	rpt, err := procexec.Invoke(ctx, "standards-probe", path, []string{"/help"})
	if err != nil {
		return nil, err
	}
	result := map[Dialect][]AliasGroup{}
	for _, match := range msvcStandardPattern.FindAllStringSubmatch(rpt.Stdout, -1) {
		language := strings.ToLower(match[2])
		var dialect Dialect
		switch language {
		case "c":
			dialect = C
		case "c++":
			dialect = CPP
		default:
			continue
		}
		var groups []AliasGroup
		for _, std := range strings.Split(match[1], "|") {
			groups = append(groups, AliasGroup{std})
		}
		result[dialect] = groups
	}
	return result, nil
}
