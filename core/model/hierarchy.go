package model

import "strings"

const (
	// HierarchySeparator joins the segments of an equipment hierarchy path.
	HierarchySeparator = "$"
	// AssetPrefix marks a trailing asset segment such as "ast_107".
	AssetPrefix = "ast_"
)

// BaseEntity strips a trailing asset segment from the hierarchy so that all
// rows targeting the same physical line share one scheduling group.
func BaseEntity(hierarchy string) string {
	parts := strings.Split(hierarchy, HierarchySeparator)
	if n := len(parts); n > 0 && strings.HasPrefix(parts[n-1], AssetPrefix) {
		parts = parts[:n-1]
	}
	return strings.Join(parts, HierarchySeparator)
}

// SiteID returns the first segment of the hierarchy.
func SiteID(hierarchy string) string {
	site, _, _ := strings.Cut(hierarchy, HierarchySeparator)
	return site
}
