package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// inspectCommand creates the interactive arm browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		storeDir string
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [layout.json | id]",
		Short: "Browse the arms and rooms of a layout",
		Long: `Browse the arms and rooms of a layout interactively.

Arms are listed in tree order; selecting one shows its placed rooms. Open
exits mark where a partial layout stopped. Use --plain to print the arm tree
without the interactive view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout(cmd.Context(), args[0], storeDir)
			if err != nil {
				return err
			}
			if plain {
				fmt.Print(armOutline(l))
				return nil
			}
			p := tea.NewProgram(NewArmTreeModel(l), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&storeDir, "store-dir", "", storeDirHelp)
	cmd.Flags().BoolVar(&plain, "plain", false, "print the arm tree and exit")

	return cmd
}
