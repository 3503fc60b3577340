package stringutil

import "strings"

// QualifyName builds the default package-qualified output name for an asset:
// "<scope-name>.<id>" with the scope's leading slash replaced by a dash, per
// the sync engine's default naming rule.
//
// This function performs normalization only - it assumes the input is already
// a valid identifier and does NOT perform character validation or sanitization.
//
// Examples:
//
//	QualifyName("@acme/quality-skills", "fetch_web") // "acme-quality-skills.fetch_web"
//	QualifyName("base", "lint")                       // "base.lint"
func QualifyName(scopeName, id string) string {
	return DashifyScope(scopeName) + "." + id
}

// DashifyScope replaces the scope separator in a package name ("@scope/name")
// with a dash, leaving unscoped names unchanged.
//
// Examples:
//
//	DashifyScope("@acme/quality-skills") // "acme-quality-skills"
//	DashifyScope("base")                 // "base"
func DashifyScope(name string) string {
	name = strings.TrimPrefix(name, "@")
	return strings.ReplaceAll(name, "/", "-")
}

// FullyQualifiedID builds an MCP server's fqid: "<package-name>/<server-id>".
func FullyQualifiedID(packageName, serverID string) string {
	return packageName + "/" + serverID
}
