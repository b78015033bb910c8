package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/ragchat/internal/config"
)

var profileDescriptionFlag string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage backend profiles",
	Long: `Named backend connections, for switching between several RAG
deployments (local, staging, a team server).

One-off runs can target any profile with the global --profile flag:
  ragchat --profile staging "What changed in the Q3 report?"

'profiles use' switches the configured backend for every later command.`,
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backend profiles",
	RunE:  runProfilesList,
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesShow,
}

var profilesAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a backend profile",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfilesAdd,
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a backend profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesDelete,
}

var profilesUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch the configured backend to a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesUse,
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesAddCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesUseCmd)

	profilesAddCmd.Flags().StringVarP(&profileDescriptionFlag, "description", "d", "",
		"Short description of the backend")
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tAPI URL\tDESCRIPTION\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t-------\t-----------\t-------")

	for _, p := range cfg.Profiles {
		isDefault := ""
		if p.Name == cfg.DefaultProfile {
			isDefault = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.APIURL, p.Description, isDefault)
	}

	return w.Flush()
}

func runProfilesShow(cmd *cobra.Command, args []string) error {
	profile, err := config.GetProfile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name: %s\n", profile.Name)
	if profile.Description != "" {
		fmt.Printf("Description: %s\n", profile.Description)
	}
	fmt.Printf("API URL: %s\n", profile.APIURL)
	if profile.Username != "" {
		fmt.Printf("Username: %s\n", profile.Username)
	}

	return nil
}

func runProfilesAdd(cmd *cobra.Command, args []string) error {
	profile := config.Profile{
		Name:        args[0],
		APIURL:      args[1],
		Description: profileDescriptionFlag,
	}

	if err := config.AddProfile(profile); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' created.\n", profile.Name)
	fmt.Printf("Switch to it with: ragchat profiles use %s\n", profile.Name)
	return nil
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := config.DeleteProfile(name); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' deleted.\n", name)
	return nil
}

func runProfilesUse(cmd *cobra.Command, args []string) error {
	name := args[0]

	profile, err := config.GetProfile(name)
	if err != nil {
		return err
	}

	if err := config.SetDefaultProfile(name); err != nil {
		return err
	}

	// Point the main config at the profile so every command follows it
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.APIURL = profile.APIURL
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Now using '%s' (%s)\n", name, profile.APIURL)
	return nil
}
