package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// importFile is the YAML layout accepted by clover import
type importFile struct {
	Configurations []*models.CreateConfigurationRequest `yaml:"configurations"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create or replace matching configurations from a YAML file",
	Long: `Create or replace matching configurations from a YAML file. Configurations are
matched by name; an existing configuration keeps its ID.

Example file:
  configurations:
    - name: birthdate and gender
      rows:
        - entry: {field_name: Person.birthdate, is_blocking: true}
        - entry: {field_name: Person.gender, is_blocking: true}
        - entry: {field_name: PersonName.givenName}
          algorithm: jaro_winkler
          threshold: 0.85

Examples:
  clover import -f strategies.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		reqs, err := parseImportFile(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		a, err := newApp(cmd.Context(), appOptions{migrate: true, service: true, cache: true, events: true})
		if err != nil {
			return err
		}
		defer a.close()

		stored, err := a.service.Import(cmd.Context(), reqs)
		for _, cfg := range stored {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  pairs=%d\n", cfg.ID, cfg.Name, cfg.EstimatedPairs)
		}
		return err
	},
}

func init() {
	importCmd.Flags().StringP("file", "f", "", "YAML file with the configurations to import")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func parseImportFile(r io.Reader) ([]*models.CreateConfigurationRequest, error) {
	var file importFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("no configurations")
		}
		return nil, err
	}
	if len(file.Configurations) == 0 {
		return nil, fmt.Errorf("no configurations")
	}

	seen := make(map[string]bool, len(file.Configurations))
	for i, req := range file.Configurations {
		if _, err := utils.Validate(req); err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i+1, err)
		}
		if seen[req.Name] {
			return nil, fmt.Errorf("configuration %q appears more than once", req.Name)
		}
		seen[req.Name] = true
	}
	return file.Configurations, nil
}
