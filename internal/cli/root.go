package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dpolishuk/coderead/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "coderead",
	Short: "CodeRead - structural analysis and summaries for Git repositories",
	Long: `CodeRead clones a repository, extracts its functions, classes and methods,
and writes natural-language summaries for every level of the tree into Neo4j.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.coderead.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("neo4j-uri", "", "Neo4j bolt URI")
	flags.String("repos-path", "", "directory holding local clones")
	flags.String("llm-provider", "", "description provider: openai or gemini")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("neo4j_uri", flags.Lookup("neo4j-uri"))
	viper.BindPFlag("repos_path", flags.Lookup("repos-path"))
	viper.BindPFlag("llm_provider", flags.Lookup("llm-provider"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".coderead")
	}

	viper.SetEnvPrefix("CODEREAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig layers flags, CODEREAD_* variables and the config file over
// the server environment.
func loadConfig() *config.Config {
	cfg := config.Load()
	if v := viper.GetString("neo4j_uri"); v != "" {
		cfg.Neo4jURI = v
	}
	if v := viper.GetString("repos_path"); v != "" {
		cfg.ReposPath = v
	}
	if v := viper.GetString("llm_provider"); v != "" {
		cfg.LLMProvider = v
	}
	return cfg
}
