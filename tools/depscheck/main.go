// Command depscheck verifies the layering of the simulation model. The
// model packages hold pure game state and must stay importable without
// dragging in the transport or boot layers.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "lost-and-found/server"

// modelPrefixes lists the packages that form the pure model layer.
var modelPrefixes = []string{
	modulePath + "/internal/geom",
	modulePath + "/internal/world",
	modulePath + "/internal/collision",
	modulePath + "/internal/loot",
	modulePath + "/internal/session",
	modulePath + "/internal/records",
}

// forbiddenPrefixes lists the layers the model must never reach into.
var forbiddenPrefixes = []string{
	modulePath + "/internal/net",
	modulePath + "/internal/game",
	modulePath + "/internal/app",
}

type packageInfo struct {
	ImportPath string
	Imports    []string
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}
		if !isModelPackage(pkg.ImportPath) {
			continue
		}

		for _, imp := range pkg.Imports {
			for _, forbidden := range forbiddenPrefixes {
				if strings.HasPrefix(imp, forbidden) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func isModelPackage(importPath string) bool {
	for _, prefix := range modelPrefixes {
		if strings.HasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}
