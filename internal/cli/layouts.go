package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/warren/pkg/store"
)

// storeFlags selects the layout store shared by the layouts subcommands.
type storeFlags struct {
	dir      string
	mongoURI string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.dir, "store-dir", "", storeDirHelp)
	cmd.PersistentFlags().StringVar(&f.mongoURI, "mongo-uri", envOr("MONGO_URI", ""), "use the MongoDB store at this URI [$WARREN_MONGO_URI]")
}

func (f *storeFlags) open(ctx context.Context) (store.Store, error) {
	return openStore(ctx, f.dir, f.mongoURI)
}

// layoutsCommand creates the command for managing saved layouts.
func (c *CLI) layoutsCommand() *cobra.Command {
	var f storeFlags

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Manage saved layouts",
	}
	f.register(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved layouts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No saved layouts")
				printNextStep("Save one with", appName+" arrange <config> --save")
				return nil
			}
			fmt.Println(summaryTable(list))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Show a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			l, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("id", l.ID)
			printKeyValue("seed", l.Seed)
			printKeyValue("complete", strconv.FormatBool(l.Complete))
			printKeyValue("size", fmt.Sprintf("%d x %d", l.Width, l.Height))
			printKeyValue("rooms", strconv.Itoa(len(l.Rooms)))
			printKeyValue("arms", strconv.Itoa(len(l.Arms)))
			printKeyValue("items", strconv.Itoa(len(l.Items)))
			printKeyValue("attempts", strconv.Itoa(l.Stats.Attempts))
			printKeyValue("backtracks", strconv.Itoa(l.Stats.Backtracks))
			fmt.Println()
			printNextStep("Browse", appName+" inspect "+l.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	})

	return cmd
}

// summaryTable renders saved layouts as a bordered table.
func summaryTable(list []store.Summary) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		status := iconPartial
		if s.Complete {
			status = iconSuccess
		}
		rows[i] = []string{s.ID, s.Seed, strconv.Itoa(s.Rooms), status, s.CreatedAt.Local().Format(time.DateTime)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Seed", "Rooms", "Done", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 4:
				return StyleDim
			case col == 3 && !list[row].Complete:
				return stylePartial
			case col == 3:
				return StyleSuccess
			}
			return StyleValue
		}).
		Render()
}
