// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/specforge/specforge/internal/config"
)

// ConfigFileName is the file written by init.
const ConfigFileName = "specforge.yaml"

var (
	initForce       bool
	initInteractive bool
	initTitle       string
	initVersion     string
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new specforge configuration file",
	Long: `Initialize a new specforge configuration file in the current directory.

This command creates a specforge.yaml file with sensible defaults
that you can customize for your project.

Features:
  - Infers the API title and description from package.json
  - Detects common model definition directories
  - Sets up appropriate exclude patterns

Example:
  specforge init                         # Create config with detected defaults
  specforge init --force                 # Overwrite existing config
  specforge init --interactive           # Interactive mode with prompts
  specforge init --title "My API"        # Set custom API title`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "interactive mode with prompts")
	initCmd.Flags().StringVar(&initTitle, "title", "", "API title for generated info.json")
	initCmd.Flags().StringVar(&initVersion, "version", "", "API version for generated info.json")
	initCmd.Flags().StringVar(&initDescription, "description", "", "API description for generated info.json")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := ConfigFileName
	if cfgFile != "" {
		configFile = cfgFile
	}

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", configFile)
	}

	projectRoot, err := filepath.Abs(".")
	if err != nil {
		return fmt.Errorf("failed to determine project root: %w", err)
	}

	cfg := config.Default()
	if output != "" {
		cfg.Output = output
	}

	info := detectProjectInfo(projectRoot)

	if initTitle != "" {
		cfg.Info.Title = initTitle
	} else if info.Title != "" {
		cfg.Info.Title = info.Title
	}

	if initVersion != "" {
		cfg.Info.Version = initVersion
	} else if info.Version != "" {
		cfg.Info.Version = info.Version
	}

	if initDescription != "" {
		cfg.Info.Description = initDescription
	} else if info.Description != "" {
		cfg.Info.Description = info.Description
	}

	modelPaths := detectModelPaths(projectRoot)
	if len(modelPaths) > 0 {
		cfg.Models.Paths = modelPaths
		printVerbose("Detected model paths: %s", strings.Join(modelPaths, ", "))
	}

	if initInteractive && isTerminal() {
		cfg = interactiveInit(cfg, os.Stdin, cmd.OutOrStdout())
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := buildConfigYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	printInfo("Created %s", configFile)
	printVerbose("Title: %s", cfg.Info.Title)
	printVerbose("Output: %s", cfg.Output)
	printVerbose("Model paths: %s", strings.Join(cfg.Models.Paths, ", "))

	return nil
}

// projectInfo holds information detected from the project.
type projectInfo struct {
	Name        string
	Title       string
	Version     string
	Description string
}

// detectProjectInfo reads the package manifest of a Node project.
func detectProjectInfo(projectRoot string) projectInfo {
	var info projectInfo

	data, err := os.ReadFile(filepath.Join(projectRoot, "package.json"))
	if err != nil {
		return info
	}

	var manifest struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return info
	}

	info.Name = manifest.Name
	info.Version = manifest.Version
	info.Description = manifest.Description

	// "@acme/my-shop_api" -> "My Shop Api API"
	name := manifest.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	if name = strings.TrimSpace(name); name != "" {
		info.Title = cases.Title(language.English).String(name) + " API"
	}

	return info
}

// detectModelPaths returns the common model definition directories present
// in the project.
func detectModelPaths(projectRoot string) []string {
	var paths []string

	for _, p := range []string{"prisma", "models", "schema"} {
		if stat, err := os.Stat(filepath.Join(projectRoot, p)); err == nil && stat.IsDir() {
			paths = append(paths, "./"+p)
		}
	}

	return paths
}

// isTerminal checks if stdin is a terminal.
func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// interactiveInit prompts for the most common settings. An empty answer
// keeps the current value.
func interactiveInit(cfg *config.Config, in io.Reader, out io.Writer) *config.Config {
	reader := bufio.NewReader(in)

	prompt := func(label string, value *string) {
		fmt.Fprintf(out, "%s [%s]: ", label, *value)
		answer, _ := reader.ReadString('\n')
		if answer = strings.TrimSpace(answer); answer != "" {
			*value = answer
		}
	}

	prompt("API Title", &cfg.Info.Title)
	prompt("API Version", &cfg.Info.Version)
	prompt("API Description", &cfg.Info.Description)
	prompt("Output file", &cfg.Output)

	return cfg
}

// buildConfigYAML builds a YAML config with a header comment.
func buildConfigYAML(cfg *config.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	header := `# specforge configuration file
# Environment variables with the SPECFORGE_ prefix override these values,
# e.g. SPECFORGE_SERVER_ADDR=:8080

`
	return append([]byte(header), data...), nil
}
