package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/dpolishuk/coderead/pkg/treesitter"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List recognized file extensions and their languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLanguages(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func printLanguages(w io.Writer) error {
	parsed := make(map[string]bool)
	for _, lang := range treesitter.SupportedLanguages() {
		parsed[lang] = true
	}

	exts := make([]string, 0, len(models.LanguageByExtension))
	for ext := range models.LanguageByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		lang := models.LanguageByExtension[ext]
		mode := "no grammar"
		if parsed[lang] {
			mode = "structural"
		}
		if _, err := fmt.Fprintf(w, "%-8s %-12s %s\n", ext, lang, mode); err != nil {
			return err
		}
	}
	return nil
}
