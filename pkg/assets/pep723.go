package assets

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	pep723Open  = "# /// script"
	pep723Close = "# ///"
)

// pep723Block holds the two fields the scanner cares about, per spec §4.6.1.
type pep723Block struct {
	RequiresPython string   `toml:"requires-python"`
	Dependencies   []string `toml:"dependencies"`
}

// extractPEP723 scans content line by line for a `# /// script` ... `# ///`
// inline metadata block (PEP 723) and decodes the embedded TOML. It stops
// scanning at the closing fence and never inspects the lines after it;
// content is the whole script as the caller read it.
//
// Returns (nil, nil) when no block is present; that is not an error, since
// the block is optional.
func extractPEP723(content []byte) (*pep723Block, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))

	var inBlock bool
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if !inBlock {
			if strings.TrimRight(line, " \t") == pep723Open {
				inBlock = true
			}
			continue
		}
		if strings.TrimRight(line, " \t") == pep723Close {
			break
		}
		// Each metadata line is a commented TOML line: "# key = value".
		trimmed := strings.TrimPrefix(line, "#")
		trimmed = strings.TrimPrefix(trimmed, " ")
		lines = append(lines, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PEP 723 block: %w", err)
	}
	if !inBlock {
		return nil, nil
	}

	var block pep723Block
	if _, err := toml.Decode(strings.Join(lines, "\n"), &block); err != nil {
		return nil, fmt.Errorf("invalid PEP 723 metadata block: %w", err)
	}
	return &block, nil
}
