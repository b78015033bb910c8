package commands

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/tui"
)

var configForceFlag bool

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open configuration menu",
		Long: `Interactive menu to configure ragchat settings.

Subcommands read and write the configuration non-interactively:
  ragchat config show
  ragchat config set api_url http://rag.internal:8000
  ragchat config set save_history false
  ragchat config reset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunConfig()
		},
	}

	cmd.AddCommand(NewConfigShowCmd(deps))
	cmd.AddCommand(NewConfigSetCmd(deps))
	cmd.AddCommand(NewConfigResetCmd(deps))

	return cmd
}

// NewConfigShowCmd creates a new config show command
func NewConfigShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(args)
		},
	}
}

// NewConfigSetCmd creates a new config set command
func NewConfigSetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Long: `Change one configuration value and save it.

Keys (as they appear in config.json):
  api_url           Backend base URL (http or https)
  username          Display name for your side of the chat
  verbose           true/false
  copy_to_clipboard true/false
  save_history      true/false
  tui_theme         TUI color theme (dark, tokyonight, catppuccin)
  download_dir      Directory for saving generated images
  markdown.style    Markdown render style
  markdown.width    Fixed render width (0 = terminal width)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args)
		},
	}
}

// NewConfigResetCmd creates a new config reset command
func NewConfigResetCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigReset(args)
		},
	}
	cmd.Flags().BoolVarP(&configForceFlag, "force", "f", false, "Skip confirmation")
	return cmd
}

// Backward compatibility global
var configCmd = NewConfigCmd(nil)

func runConfigShow(args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configPath, _ := config.GetConfigPath()

	fmt.Printf("Configuration (%s)\n\n", configPath)
	fmt.Printf("api_url:           %s\n", cfg.APIURL)
	if cfg.Username != "" {
		fmt.Printf("username:          %s\n", cfg.Username)
	}
	fmt.Printf("verbose:           %t\n", cfg.Verbose)
	fmt.Printf("copy_to_clipboard: %t\n", cfg.CopyToClipboard)
	fmt.Printf("save_history:      %t\n", cfg.SaveHistory)
	fmt.Printf("tui_theme:         %s\n", cfg.TUITheme)
	fmt.Printf("download_dir:      %s\n", cfg.DownloadDir)
	fmt.Printf("markdown.style:    %s\n", cfg.Markdown.Style)
	if cfg.Markdown.Width > 0 {
		fmt.Printf("markdown.width:    %d\n", cfg.Markdown.Width)
	} else {
		fmt.Printf("markdown.width:    terminal\n")
	}

	return nil
}

func runConfigSet(args []string) error {
	key := strings.ToLower(args[0])
	value := args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch key {
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api_url must be an http or https URL")
		}
		cfg.APIURL = strings.TrimRight(value, "/")
	case "username":
		cfg.Username = value
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard must be true or false")
		}
		cfg.CopyToClipboard = b
	case "save_history":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("save_history must be true or false")
		}
		cfg.SaveHistory = b
	case "tui_theme":
		cfg.TUITheme = value
	case "download_dir":
		cfg.DownloadDir = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "markdown.width":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("markdown.width must be a non-negative number")
		}
		cfg.Markdown.Width = n
	default:
		return fmt.Errorf("unknown config key %q (run 'ragchat config set --help' for the key list)", args[0])
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigReset(args []string) error {
	if !configForceFlag {
		if !confirm("Reset configuration to defaults?") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("✓ Configuration reset to defaults")
	return nil
}
