package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/graevy/mag/internal/util"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:     "tag",
	Aliases: []string{"t"},
	Short:   "Create, remove or list tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Create tags",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTagAdd,
}

var tagRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove tags along with their song assignments and feedback",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTagRemove,
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags and how many songs carry each",
	Args:  cobra.NoArgs,
	RunE:  runTagList,
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagAddCmd, tagRemoveCmd, tagListCmd)
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	for _, name := range args {
		if err := lib.AddTag(name); err != nil {
			return err
		}
		util.SuccessLog("Added tag %s", name)
	}
	return nil
}

func runTagRemove(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	for _, name := range args {
		if err := lib.RemoveTag(name); err != nil {
			return err
		}
		util.SuccessLog("Removed tag %s", name)
	}
	return nil
}

func runTagList(cmd *cobra.Command, args []string) error {
	lib, logger := newLibrary()
	defer logger.Close()

	usage, err := lib.ListTags()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(usage) == 0 {
		fmt.Fprintln(out, "No tags defined")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tSONGS")
	for _, u := range usage {
		fmt.Fprintf(w, "%s\t%d\n", u.Name, u.Songs)
	}
	return w.Flush()
}
