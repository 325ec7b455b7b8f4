// Command loxi is the out-of-scope external collaborator of spec.md §1
// §6: a thin CLI wrapping driver.Runner. Grounded on the teacher's
// main.go (flag-based -input/-i, liner-backed REPL with xdg history).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	"github.com/loxi-lang/loxi/driver"
)

// Config is the optional loxi.yaml read from the current directory,
// reusing the yaml.v3 decoder the test fixtures already depend on
// (SPEC_FULL.md §3 domain stack table).
type Config struct {
	ImportPath []string `yaml:"import_path"`
}

func loadConfig(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "loxi.yaml: %v\n", err)
		return Config{}
	}
	return cfg
}

func main() {
	const inputUsage = "input file path"
	var inputPath string
	flag.StringVar(&inputPath, "input", "", inputUsage)
	flag.StringVar(&inputPath, "i", "", inputUsage+" (shorthand)")
	flag.Parse()

	cfg := loadConfig("loxi.yaml")

	if inputPath == "" {
		if err := runPrompt(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	code, err := runFile(inputPath, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(int(code))
}

var historyPath = filepath.Join(xdg.DataHome, "loxi", ".loxi_history")

func runPrompt(cfg Config) error {
	line := liner.NewLiner()
	defer func() {
		if err := os.MkdirAll(filepath.Dir(historyPath), os.ModePerm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if f, err := os.Create(historyPath); err == nil {
			defer f.Close()
			if _, err := line.WriteHistory(f); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		line.Close()
	}()

	if f, err := os.Open(historyPath); err == nil {
		defer f.Close()
		if _, err := line.ReadHistory(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	runner := driver.NewRunner()
	runner.Interp.Loader.SearchPath = append(cfg.ImportPath, runner.Interp.Loader.SearchPath...)
	for {
		input, err := line.Prompt("> ")
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		if _, err := runner.Run(input, driver.ModeREPL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func runFile(path string, cfg Config) (driver.ExitCode, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return driver.ExitRuntime, err
	}

	runner := driver.NewRunner()
	runner.Interp.Loader.SearchPath = append(cfg.ImportPath, runner.Interp.Loader.SearchPath...)
	return runner.Run(string(source), driver.ModeFile)
}
