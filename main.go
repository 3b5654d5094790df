package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "gm",
		Short:        "gm is a terminal ethereum wallet",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newModel()
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the gm version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gm", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
