package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaultoo/warden/internal/config"
)

var grantorCmd = &cobra.Command{
	Use:   "grantor",
	Short: "Manage named grantor profiles",
	// Profile management is local file work; skip client wiring.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var grantorAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named grantor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		nats, _ := cmd.Flags().GetString("nats")

		pc, err := config.LoadProfiles()
		if err != nil {
			return err
		}
		pc.Grantors[name] = config.Grantor{URL: url, NATSURL: nats}
		if pc.Active == "" {
			pc.Active = name
		}
		if err := config.SaveProfiles(pc); err != nil {
			return err
		}
		fmt.Printf("grantor %q added (%s)\n", name, url)
		return nil
	},
}

var grantorUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Select the active grantor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		pc, err := config.LoadProfiles()
		if err != nil {
			return err
		}
		if _, ok := pc.Grantors[name]; !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown grantor %q\n", name)
			os.Exit(1)
		}
		pc.Active = name
		if err := config.SaveProfiles(pc); err != nil {
			return err
		}
		fmt.Printf("active grantor: %s\n", name)
		return nil
	},
}

var grantorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured grantors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, err := config.LoadProfiles()
		if err != nil {
			return err
		}
		if len(pc.Grantors) == 0 {
			fmt.Println("No grantors configured.")
			return nil
		}

		names := make([]string, 0, len(pc.Grantors))
		for name := range pc.Grantors {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tNATS\tACTIVE")
		for _, name := range names {
			g := pc.Grantors[name]
			active := ""
			if name == pc.Active {
				active = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, g.URL, g.NATSURL, active)
		}
		return w.Flush()
	},
}

var grantorRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named grantor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		pc, err := config.LoadProfiles()
		if err != nil {
			return err
		}
		if _, ok := pc.Grantors[name]; !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown grantor %q\n", name)
			os.Exit(1)
		}
		delete(pc.Grantors, name)
		if pc.Active == name {
			pc.Active = ""
		}
		if err := config.SaveProfiles(pc); err != nil {
			return err
		}
		fmt.Printf("grantor %q removed\n", name)
		return nil
	},
}

func init() {
	grantorAddCmd.Flags().String("nats", "", "NATS URL for this grantor")

	grantorCmd.AddCommand(grantorAddCmd)
	grantorCmd.AddCommand(grantorUseCmd)
	grantorCmd.AddCommand(grantorListCmd)
	grantorCmd.AddCommand(grantorRemoveCmd)
}
