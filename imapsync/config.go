package main

import (
	"os"

	"gopkg.in/yaml.v2"

	"imapsync/imap"
)

// Config supplies defaults for any flag in §6 that the CLI did not
// set explicitly. It is optional and additive only: it never carries
// credentials, and a flag the user did pass on the command line always
// wins over a value found here.
type Config struct {
	Server    string `yaml:"server"`
	Port      int    `yaml:"port"`
	TLS       bool   `yaml:"tls"`
	CAFile    string `yaml:"ca_file"`
	CADir     string `yaml:"ca_dir"`
	Mailbox   string `yaml:"mailbox"`
	OutDir    string `yaml:"outdir"`
	IndexPath string `yaml:"index_path"`
}

// LoadConfig reads and unmarshals the YAML file named by path. Unlike
// the multi-path probing some config loaders do when no file is named,
// -f is explicit here, so a missing file is always an error rather
// than silently skipped.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(imap.KindArgument, err, "reading config file %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, newError(imap.KindArgument, err, "parsing config file %s", path)
	}
	return &cfg, nil
}
