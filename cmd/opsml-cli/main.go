package main

import (
	"github.com/demml/opsml-cli/pkg/cli"
	"github.com/demml/opsml-cli/pkg/util/console"
)

func main() {
	cmd, err := cli.NewRootCommand()
	if err != nil {
		console.Fatalf("%s", err)
	}

	if err = cmd.Execute(); err != nil {
		console.Fatalf("%s", err)
	}
}
