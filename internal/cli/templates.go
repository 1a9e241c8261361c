package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/opencode-ai/nbtemplates/internal/placeholder"
	"github.com/opencode-ai/nbtemplates/internal/templates"
	"github.com/spf13/cobra"
)

var (
	templatesUser string
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pathsCmd)

	listCmd.Flags().StringVar(&templatesUser, "user", placeholder.DefaultUsername, "username to render templates for")
	showCmd.Flags().StringVar(&templatesUser, "user", placeholder.DefaultUsername, "username to render templates for")
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.OutOrStdout())
	},
}

var showCmd = &cobra.Command{
	Use:   "show <template>",
	Short: "Print a rendered template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.OutOrStdout(), args[0])
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show template search paths in precedence order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPaths(cmd.OutOrStdout())
	},
}

func runList(out io.Writer) error {
	step := startProgress("Scanning templates")
	names, index, err := newService().List(templatesUser)
	if err != nil {
		step.Fail(err)
		return err
	}
	step.Done()

	if IsJSONOutput() {
		return writeJSON(out, names)
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "No templates found")
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, index[name].Path})
	}
	return writeTable(out, []string{"TEMPLATE", "SOURCE"}, rows, IsInteractive())
}

func runShow(out io.Writer, key string) error {
	record, err := newService().FetchTemplate(key, templatesUser)
	if errors.Is(err, templates.ErrTemplateNotFound) {
		return fmt.Errorf("template %q not found", key)
	}
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return writeJSON(out, record)
	}
	_, err = io.WriteString(out, record.Content)
	return err
}

func runPaths(out io.Writer) error {
	roots := searchRoots()

	if IsJSONOutput() {
		return writeJSON(out, templates.RootPaths(roots))
	}

	rows := make([][]string, 0, len(roots))
	for i, root := range roots {
		exists := root.Path == templates.BuiltinSource
		if !exists {
			if info, err := os.Stat(root.Path); err == nil && info.IsDir() {
				exists = true
			}
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), root.Path, formatYesNo(exists)})
	}
	return writeTable(out, []string{"#", "PATH", "EXISTS"}, rows, IsInteractive())
}
