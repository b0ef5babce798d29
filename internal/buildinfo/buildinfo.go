// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/faq-linebot-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/faq-linebot-go/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/faq-linebot-go/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the identifier reported to error tracking, falling back to
// the commit and then "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
