package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// SaveWalletLinks replaces the wallets section of the config file.
// Comments and formatting in other sections are preserved by editing the
// yaml.Node tree rather than re-marshaling Config.
func SaveWalletLinks(configPath string, wallets map[string][]string) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	setTopLevelKey(&doc, "wallets", buildWalletsNode(wallets))

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// LinkWallet adds addr to the user's linked wallets, ignoring duplicates,
// and persists the result. The updated map is returned.
func LinkWallet(configPath string, current map[string][]string, userID, addr string) (map[string][]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if err := ValidateWallets(map[string][]string{userID: {addr}}); err != nil {
		return nil, err
	}

	updated := copyWallets(current)
	for _, existing := range updated[userID] {
		if equalFoldHex(existing, addr) {
			return updated, nil
		}
	}
	updated[userID] = append(updated[userID], addr)

	if err := SaveWalletLinks(configPath, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UnlinkWallet removes addr from the user's wallets. Removing the last
// wallet drops the user entry.
func UnlinkWallet(configPath string, current map[string][]string, userID, addr string) (map[string][]string, error) {
	updated := copyWallets(current)
	addrs := updated[userID]
	kept := make([]string, 0, len(addrs))
	for _, existing := range addrs {
		if !equalFoldHex(existing, addr) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(addrs) {
		return nil, fmt.Errorf("wallet %s is not linked to user %s", addr, userID)
	}
	if len(kept) == 0 {
		delete(updated, userID)
	} else {
		updated[userID] = kept
	}

	if err := SaveWalletLinks(configPath, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func setTopLevelKey(doc *yaml.Node, key string, value *yaml.Node) {
	if doc.Kind == 0 {
		*doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						value,
					},
				},
			},
		}
		return
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i < len(root.Content)-1; i += 2 {
		if root.Content[i].Value == key {
			root.Content[i+1] = value
			return
		}
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		value,
	)
}

// buildWalletsNode emits users in sorted order so the file diffs cleanly.
func buildWalletsNode(wallets map[string][]string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}

	users := make([]string, 0, len(wallets))
	for u := range wallets {
		users = append(users, u)
	}
	sort.Strings(users)

	for _, u := range users {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, a := range wallets[u] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: a})
		}
		// User ids are numeric in most chat systems; quote them so they stay strings.
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: u, Style: yaml.DoubleQuotedStyle},
			seq,
		)
	}
	return node
}

func writeAtomic(configPath string, data []byte) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".namebridge.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func copyWallets(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for u, addrs := range in {
		out[u] = append([]string(nil), addrs...)
	}
	return out
}

func equalFoldHex(a, b string) bool {
	return bytes.EqualFold([]byte(a), []byte(b))
}
