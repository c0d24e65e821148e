package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sitetemplates/internal/engine"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which template renders a page",
}

func printResolution(res engine.Resolution) {
	t := res.Template
	if !res.Configured() {
		fmt.Printf("%s: no template configured\n", t.Type)
		return
	}
	fmt.Printf("%d\t%s\t%s\t%s\n", t.ID, t.TemplateName, t.RelatedFileName, res.Source)
}

// resolveRunE builds a resolve subcommand taking a site id and one more id.
func resolveRunE(what string, fn func(e *engine.Engine, ctx context.Context, siteID, id int64) (engine.Resolution, error)) func(*cobra.Command, []string) error {
	return withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		id, err := parseID(args[1], what)
		if err != nil {
			return err
		}
		res, err := fn(a.engine, ctx, siteID, id)
		if err != nil {
			return err
		}
		printResolution(res)
		return nil
	})
}

var resolveIndexCmd = &cobra.Command{
	Use:   "index SITE",
	Short: "Resolve the index page template",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		res, err := a.engine.ResolveIndexTemplate(ctx, siteID)
		if err != nil {
			return err
		}
		printResolution(res)
		return nil
	}),
}

var resolveChannelCmd = &cobra.Command{
	Use:   "channel SITE CHANNEL",
	Short: "Resolve the template of a channel page",
	Args:  cobra.ExactArgs(2),
	RunE:  resolveRunE("channel id", (*engine.Engine).ResolveChannelTemplate),
}

var resolveContentCmd = &cobra.Command{
	Use:   "content SITE CHANNEL",
	Short: "Resolve the template of content pages in a channel",
	Args:  cobra.ExactArgs(2),
	RunE:  resolveRunE("channel id", (*engine.Engine).ResolveContentTemplate),
}

var resolveFileCmd = &cobra.Command{
	Use:   "file SITE TEMPLATE",
	Short: "Resolve a file template",
	Args:  cobra.ExactArgs(2),
	RunE:  resolveRunE("template id", (*engine.Engine).ResolveFileTemplate),
}

var reconcileRepair bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile SITE",
	Short: "Compare template records with their content files",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		report, err := a.engine.Reconcile(ctx, siteID, reconcileRepair)
		if err != nil {
			return err
		}

		fmt.Printf("checked %d templates, %d issues\n", report.Checked, len(report.Issues))
		if len(report.Issues) == 0 {
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "KIND\tTEMPLATE\tTYPE\tPATH\tREPAIRED")
		for _, is := range report.Issues {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%v\n", is.Kind, is.TemplateID, is.Type, is.Path, is.Repaired)
		}
		return w.Flush()
	}),
}

func init() {
	resolveCmd.AddCommand(resolveIndexCmd, resolveChannelCmd, resolveContentCmd, resolveFileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileRepair, "repair", false, "rewrite missing files from template history")
}
