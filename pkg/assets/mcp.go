package assets

import "github.com/BurntSushi/toml"

// mcpServersFile mirrors a package's mcp/servers.toml (spec §4.8): zero or
// more server declarations, each becoming its own mcp-server asset whose
// fully-qualified id is "<package-name>/<server-id>" (stringutil.FullyQualifiedID).
type mcpServersFile struct {
	Servers map[string]mcpServerDef `toml:"servers"`
}

type mcpServerDef struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`
	Network bool              `toml:"network"`
}

// RequiresExec mirrors spec §4.8: "a server that specifies a local
// command/args implicitly requires exec".
func (d mcpServerDef) RequiresExec() bool { return d.Command != "" }

func parseMCPServers(data []byte) (*mcpServersFile, error) {
	var f mcpServersFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (d mcpServerDef) toMetadata() map[string]interface{} {
	meta := map[string]interface{}{
		"command": d.Command,
		"network": d.Network,
		"exec":    d.RequiresExec(),
	}
	if len(d.Args) > 0 {
		meta["args"] = d.Args
	}
	if len(d.Env) > 0 {
		meta["env"] = d.Env
	}
	return meta
}
