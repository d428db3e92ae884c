// Command depscheck fails when the physics core imports I/O layers.
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

const modulePath = "github.com/kamilpitula/platformer"

var corePackages = []string{
	"./internal/geom/...",
	"./internal/tilemap/...",
	"./internal/body/...",
	"./internal/collider/...",
}

// forbidden holds exact import paths and, when ending in "/", prefixes.
var forbidden = []string{
	"os",
	"net",
	"net/",
	"github.com/gorilla/",
	"github.com/vmihailenco/",
	"github.com/BurntSushi/",
	modulePath + "/logging",
	modulePath + "/internal/net",
	modulePath + "/internal/world",
	modulePath + "/internal/sim",
	modulePath + "/internal/journal",
	modulePath + "/internal/config",
}

type packageInfo struct {
	ImportPath string
	Imports    []string
}

func main() {
	args := append([]string{"list", "-json"}, corePackages...)
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	violations, err := findViolations(bytes.NewReader(output), forbidden)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func findViolations(r io.Reader, rules []string) ([]string, error) {
	decoder := json.NewDecoder(r)

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for _, imp := range pkg.Imports {
			if matches(imp, rules) {
				violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}

func matches(imp string, rules []string) bool {
	for _, rule := range rules {
		if strings.HasSuffix(rule, "/") {
			if strings.HasPrefix(imp, rule) {
				return true
			}
			continue
		}
		if imp == rule || strings.HasPrefix(imp, rule+"/") {
			return true
		}
	}
	return false
}
