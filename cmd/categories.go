package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Prints the category to repository mapping after renames",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		index := cfg.RepoIndex()

		tbl := table.NewWriter()
		tbl.SetOutputMirror(os.Stdout)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Category", "Repositories"})
		for _, cat := range cfg.Categories {
			names := make([]string, 0, len(cat.Repos))
			for _, name := range cat.Repos {
				names = append(names, index[name].FullName())
			}
			tbl.AppendRow(table.Row{cat.Name, strings.Join(names, "\n")})
			tbl.AppendSeparator()
		}
		tbl.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
