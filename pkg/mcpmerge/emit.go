package mcpmerge

import (
	"bytes"
	"encoding/json"
)

// mcpConfigFile is the shape written to a target's MCP output file (e.g.
// claude's mcp.json): a flat, fqid-keyed server table. Map keys are sorted
// by encoding/json automatically, matching spec §4.8's "sorted keys" rule;
// Servers is already fqid-sorted by Merge, so iteration order and key order
// agree.
type mcpConfigFile struct {
	MCPServers map[string]mcpServerOutput `json:"mcpServers"`
}

type mcpServerOutput struct {
	Args    []string          `json:"args,omitempty"`
	Command string            `json:"command"`
	Env     map[string]string `json:"env,omitempty"`
}

// Marshal renders the result's allowed servers as the canonical MCP config
// document: fixed 2-space indent, LF line endings, a single trailing
// newline, no timestamps.
func (r *Result) Marshal() ([]byte, error) {
	doc := mcpConfigFile{MCPServers: map[string]mcpServerOutput{}}
	for _, s := range r.Servers {
		doc.MCPServers[s.FQID] = mcpServerOutput{Command: s.Command, Args: s.Args, Env: s.Env}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
