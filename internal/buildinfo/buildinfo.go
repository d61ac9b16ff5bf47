package buildinfo

import "fmt"

const Graffiti = "       _\n  __ _| | _____   _____\n / _` | |/ _ \\ \\ / / _ \\\n| (_| | | (_) \\ V /  __/\n \\__, |_|\\___/ \\_/ \\___|\n |___/\n\n"

// Set with -ldflags "-X github.com/go-sod/glove/internal/buildinfo.BuildTag=..."
var (
	BuildTag string = "v0.0.0"
	Name     string = "glove"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

func (b buildinfo) String() string {
	if b.Time() == "" {
		return fmt.Sprintf("%s %s", b.Name(), b.Tag())
	}
	return fmt.Sprintf("%s %s (built %s)", b.Name(), b.Tag(), b.Time())
}

var Info buildinfo
