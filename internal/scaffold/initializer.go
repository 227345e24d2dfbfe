package scaffold

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// ConfigFileName is the file Initialize creates in the working directory.
const ConfigFileName = "nudge.yml"

// Initialize creates the Nudge project configuration.
// If force is true, it will remove an existing nudge.yml first.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	content, err := templatesFS.ReadFile("templates/nudge.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read nudge.yml template: %w", err)
	}

	if err := os.WriteFile(ConfigFileName, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFileName, err)
	}

	return validateCreatedFile()
}

// handleForce removes the existing config if --force was specified
func handleForce() error {
	if _, err := os.Stat(ConfigFileName); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", ConfigFileName)
		if err := os.Remove(ConfigFileName); err != nil {
			return fmt.Errorf("failed to remove %s: %w", ConfigFileName, err)
		}
	}
	return nil
}

// validateCreatedFile validates that the created file is correct
func validateCreatedFile() error {
	content, err := os.ReadFile(ConfigFileName)
	if err != nil {
		return fmt.Errorf("failed to read created %s: %w", ConfigFileName, err)
	}

	var yamlData interface{}
	if err := yaml.Unmarshal(content, &yamlData); err != nil {
		return fmt.Errorf("created %s is not valid YAML: %w", ConfigFileName, err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized Nudge project!")
	fmt.Println("\nCreated:")
	fmt.Printf("  ✓ %s\n", ConfigFileName)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Customize %s (namespace, timezone, channels)\n", ConfigFileName)
	fmt.Println("  2. Point NUDGE_REDIS_URL at your Redis server")
	fmt.Println("  3. Run 'nudge serve' to start the service")
}
