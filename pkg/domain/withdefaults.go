package domain

import "fmt"

// WithDefaultsMode controls how nodes carrying the default flag are reported in data replies.
type WithDefaultsMode string

const (
	// WithDefaultsReportAll reports every node, default or not.
	WithDefaultsReportAll WithDefaultsMode = "report-all"
	// WithDefaultsTrim omits nodes whose value equals the schema default.
	WithDefaultsTrim WithDefaultsMode = "trim"
	// WithDefaultsExplicit omits nodes that were not explicitly set.
	WithDefaultsExplicit WithDefaultsMode = "explicit"
	// WithDefaultsReportAllTagged reports every node and tags the default ones.
	WithDefaultsReportAllTagged WithDefaultsMode = "report-all-tagged"
)

// ParseWithDefaultsMode converts a mode name to a WithDefaultsMode.
// An empty name selects WithDefaultsExplicit.
func ParseWithDefaultsMode(name string) (WithDefaultsMode, error) {
	switch m := WithDefaultsMode(name); m {
	case "":
		return WithDefaultsExplicit, nil
	case WithDefaultsReportAll, WithDefaultsTrim, WithDefaultsExplicit, WithDefaultsReportAllTagged:
		return m, nil
	default:
		return "", fmt.Errorf("unknown with-defaults mode %q", name)
	}
}
