package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// ConfigFile represents an HCL configuration file with preserved source.
// This allows round-trip editing while preserving comments and formatting.
type ConfigFile struct {
	Path    string
	Config  *Config
	hclFile *hclwrite.File
}

// LoadConfigFile loads an HCL config file, preserving the original source
// for round-trip editing with comments.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadConfigFromBytes(path, data)
}

// LoadConfigFromBytes loads config from bytes, preserving source for round-trip.
func LoadConfigFromBytes(filename string, data []byte) (*ConfigFile, error) {
	// Parse for writing (preserves comments and formatting)
	hclFile, diags := hclwrite.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL for writing: %s", diags.Error())
	}

	// Parse for reading (into Go struct)
	cfg, err := decode(filename, data)
	if err != nil {
		return nil, err
	}

	return &ConfigFile{
		Path:    filename,
		Config:  cfg,
		hclFile: hclFile,
	}, nil
}

// Bytes returns the current HCL source.
func (cf *ConfigFile) Bytes() []byte {
	return cf.hclFile.Bytes()
}

// SetProfile replaces the profile of one family inside a connection block,
// leaving the rest of the file untouched. A nil profile removes the block.
func (cf *ConfigFile) SetProfile(connection string, family netobj.Family, p *IPProfile) error {
	conn, ok := cf.Config.FindConnection(connection)
	if !ok {
		return fmt.Errorf("connection %q not found", connection)
	}

	var block *hclwrite.Block
	for _, b := range cf.hclFile.Body().Blocks() {
		if b.Type() == "connection" && len(b.Labels()) == 1 && b.Labels()[0] == connection {
			block = b
			break
		}
	}
	if block == nil {
		return fmt.Errorf("connection %q has no block in %s", connection, cf.Path)
	}

	name := profileBlockName(family)
	body := block.Body()
	for _, b := range body.Blocks() {
		if b.Type() == name {
			body.RemoveBlock(b)
		}
	}
	if p != nil {
		writeProfile(body.AppendNewBlock(name, nil).Body(), p)
	}

	switch family {
	case netobj.IPv4:
		conn.IPv4 = p
	case netobj.IPv6:
		conn.IPv6 = p
	}
	return nil
}

// Save writes the config back to disk, keeping a backup of the previous file.
func (cf *ConfigFile) Save() error {
	return cf.SaveTo(cf.Path)
}

// SaveTo writes the config to a specific path.
func (cf *ConfigFile) SaveTo(path string) error {
	// Create backup of original file
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, cf.hclFile.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	cf.Path = path
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func profileBlockName(family netobj.Family) string {
	if family == netobj.IPv6 {
		return "ipv6"
	}
	return "ipv4"
}
