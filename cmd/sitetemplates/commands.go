package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sitetemplates/internal/database"
	"sitetemplates/internal/models"
)

// withApp opens the application for the duration of one command.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		// openApp has already migrated.
		fmt.Printf("migrations applied (%s)\n", a.driver)
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the main site and its default templates if missing",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := database.Seed(a.db, a.driver); err != nil {
			return err
		}
		return ensureDefaults(ctx, a, 1)
	}),
}

// ensureDefaults creates the default templates of a site that has none.
func ensureDefaults(ctx context.Context, a *app, siteID int64) error {
	counts, err := a.engine.CountTemplatesByType(ctx, siteID)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		fmt.Printf("site %d already has %d templates\n", siteID, total)
		return nil
	}
	if err := a.engine.CreateDefaultTemplates(ctx, siteID, userID); err != nil {
		return err
	}
	fmt.Printf("default templates created for site %d\n", siteID)
	return nil
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Site commands",
}

var siteDefaults bool

var siteCreateCmd = &cobra.Command{
	Use:   "create NAME DIR",
	Short: "Create a site with its root channel",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		site, err := a.sites.Create(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		root := &models.Channel{ID: site.ID, SiteID: site.ID, Name: site.Name}
		if err := a.channels.Create(ctx, root); err != nil {
			return fmt.Errorf("create root channel: %w", err)
		}
		fmt.Printf("site %d created at %s\n", site.ID, site.RootDir)

		if siteDefaults {
			return ensureDefaults(ctx, a, site.ID)
		}
		return nil
	}),
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		sites, err := a.sites.List(ctx)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tDIR")
		for _, s := range sites {
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.RootDir)
		}
		return w.Flush()
	}),
}

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Channel commands",
}

var (
	channelTemplateID int64
	contentTemplateID int64
)

var channelCreateCmd = &cobra.Command{
	Use:   "create SITE NAME",
	Short: "Create a channel",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		ch := &models.Channel{
			SiteID:            siteID,
			Name:              args[1],
			ChannelTemplateID: channelTemplateID,
			ContentTemplateID: contentTemplateID,
		}
		if err := a.channels.Create(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("channel %d created\n", ch.ID)
		return nil
	}),
}

var channelSetTemplatesCmd = &cobra.Command{
	Use:   "set-templates CHANNEL",
	Short: "Point a channel at channel and content templates (0 uses the site default)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0], "channel id")
		if err != nil {
			return err
		}
		return a.channels.SetTemplates(ctx, id, channelTemplateID, contentTemplateID)
	}),
}

var cacheLogLimit int

var cacheLogCmd = &cobra.Command{
	Use:   "cache-log",
	Short: "Show recent cache invalidations",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		entries, err := a.cacheLog.RecentEntries(ctx, cacheLogLimit)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "TIME\tENTITY\tID\tACTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.InvalidatedAt.Format("2006-01-02 15:04:05"), e.EntityType, e.EntityID, e.Action)
		}
		return w.Flush()
	}),
}

func init() {
	siteCreateCmd.Flags().BoolVar(&siteDefaults, "defaults", true, "create the default index, channel and content templates")
	siteCmd.AddCommand(siteCreateCmd, siteListCmd)

	for _, c := range []*cobra.Command{channelCreateCmd, channelSetTemplatesCmd} {
		c.Flags().Int64Var(&channelTemplateID, "channel-template", 0, "channel template id")
		c.Flags().Int64Var(&contentTemplateID, "content-template", 0, "content template id")
	}
	channelCmd.AddCommand(channelCreateCmd, channelSetTemplatesCmd)

	cacheLogCmd.Flags().IntVarP(&cacheLogLimit, "limit", "n", 20, "number of entries")
}
