package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/config"
	"github.com/archlens/targetview/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize a new Target View project in the current directory",
	Long: `Initialize a project by creating a .targetview/ directory with a database.

This creates:
  - .targetview/ directory
  - .targetview/<project-name>.db (SQLite database)
  - .targetview/view.yaml (example view configuration, if missing)

If no project name is provided, the current directory name is used.

Example:
  cd ~/estate
  targetview init             # Creates .targetview/estate.db
  targetview init landscape   # Creates .targetview/landscape.db`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		projectName := ""
		if len(args) > 0 {
			projectName = args[0]
		}

		cwd, err := os.Getwd()
		if err != nil {
			fail(fmt.Errorf("failed to get current directory: %w", err))
		}

		path, err := storage.InitProject(cwd, projectName)
		if err != nil {
			fail(err)
		}

		// Initialize the database schema by opening and closing it
		db, err := storage.NewStorage(context.Background(), &storage.Config{Path: path})
		if err != nil {
			fail(fmt.Errorf("failed to initialize database: %w", err))
		}
		_ = db.Close()

		viewFile := config.ViewFilePath(cwd)

		fmt.Printf("\n%s Initialized Target View project\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(path))
		fmt.Printf("  Config:   %s\n", cyan(viewFile))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("targetview lens add applications Applications"))
		fmt.Printf("  %s\n", gray("targetview import estate.yaml"))
		fmt.Printf("  %s\n", gray("targetview view applications platforms"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
