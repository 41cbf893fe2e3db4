// Package version describes the running glyphcast build.
//
// Release builds stamp the link-time fields:
//
//	go build -ldflags "-X go.jacobcolvin.com/glyphcast/version.Version=v1.2.0"
//
// Unstamped builds fall back to the module and VCS data the Go toolchain
// embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Link-time fields.
var (
	Version   string
	Branch    string
	BuildUser string
	BuildDate string
)

// Revision is the VCS commit of the build, suffixed "-dirty" when the tree
// had local changes, or "unknown".
var Revision = readBuild().revision

// Info is the build metadata printed by "glyphcast version".
type Info struct {
	Name      string
	Version   string
	Revision  string
	Branch    string
	BuildUser string
	BuildDate string
	Platform  string
	Go        string
}

// Get collects the build metadata for the binary called name.
func Get(name string) Info {
	v := Version
	if v == "" {
		v = readBuild().module
	}

	return Info{
		Name:      name,
		Version:   v,
		Revision:  Revision,
		Branch:    Branch,
		BuildUser: BuildUser,
		BuildDate: BuildDate,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Go:        runtime.Version(),
	}
}

// String formats i on one line, e.g.
// "glyphcast v1.2.0 (rev abc123, go1.25.0 linux/amd64)".
func (i Info) String() string {
	details := []string{"rev " + i.Revision}

	if i.Branch != "" {
		details = append(details, "branch "+i.Branch)
	}

	switch {
	case i.BuildDate != "" && i.BuildUser != "":
		details = append(details, fmt.Sprintf("built %s by %s", i.BuildDate, i.BuildUser))
	case i.BuildDate != "":
		details = append(details, "built "+i.BuildDate)
	}

	details = append(details, i.Go+" "+i.Platform)

	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, strings.Join(details, ", "))
}

// String is shorthand for Get(name).String().
func String(name string) string {
	return Get(name).String()
}

type build struct {
	module   string
	revision string
}

func readBuild() build {
	b := build{module: "dev", revision: "unknown"}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		b.module = v
	}

	dirty := false

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if dirty {
		b.revision += "-dirty"
	}

	return b
}
