package cmd

import "testing"

func TestIdentifyCmdFlags(t *testing.T) {
	cmd := newIdentifyCmd()
	for _, name := range []string{"config", "endpoint", "lat", "lon", "raw"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("identify command missing --%s flag", name)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "identify"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing %s subcommand", name)
		}
	}
}
