package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pagecraft/internal/component"
	"pagecraft/internal/config"
	"pagecraft/internal/store"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the project's style classes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workspace)
		if err != nil {
			return err
		}
		db, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		classes, err := db.ListClasses(projectID)
		if err != nil {
			return err
		}
		if len(classes) == 0 {
			fmt.Println("no classes yet")
			return nil
		}
		for _, c := range classes {
			kind := "user"
			if c.IsAutoClass {
				kind = "auto"
			}
			fmt.Printf("%-30s %-5s %d props\n", c.Name, kind, len(c.Styles))
		}
		return nil
	},
}

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the project's variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workspace)
		if err != nil {
			return err
		}
		db, err := store.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, scope := range []component.VariableScope{component.ScopeApp, component.ScopePage} {
			vars, err := db.VariablesByScope(projectID, scope)
			if err != nil {
				return err
			}
			for _, v := range vars {
				value := v.RuntimeValue
				if value == nil {
					value = v.InitialValue
				}
				fmt.Printf("%s.%-24s %-8s %v\n", v.Scope, v.Name, v.DataType, value)
			}
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workspace)
		if err != nil {
			return err
		}
		shown := *cfg
		if shown.Generation.APIKey != "" {
			shown.Generation.APIKey = "****"
		}
		if shown.Generation.GeminiAPIKey != "" {
			shown.Generation.GeminiAPIKey = "****"
		}
		out, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
