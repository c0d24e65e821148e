package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sitetemplates/internal/models"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Template commands",
}

var (
	listType       string
	importType     string
	tmplName       string
	tmplFileName   string
	tmplOutputName string
	tmplDefault    bool
)

func parseType(s string) (models.TemplateType, error) {
	switch strings.ToLower(s) {
	case "index":
		return models.TemplateTypeIndexPage, nil
	case "channel":
		return models.TemplateTypeChannel, nil
	case "content":
		return models.TemplateTypeContent, nil
	case "file":
		return models.TemplateTypeFile, nil
	}
	return models.ParseTemplateType(s)
}

var templateListCmd = &cobra.Command{
	Use:   "list SITE",
	Short: "List the templates of a site",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}

		var list []models.Template
		if listType != "" {
			t, err := parseType(listType)
			if err != nil {
				return err
			}
			list, err = a.engine.ListTemplatesByType(ctx, siteID, t)
			if err != nil {
				return err
			}
		} else {
			list, err = a.engine.ListTemplatesBySite(ctx, siteID)
			if err != nil {
				return err
			}
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tTYPE\tNAME\tFILE\tOUTPUT\tDEFAULT")
		for _, t := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%v\n",
				t.ID, t.Type, t.TemplateName, t.RelatedFileName, t.CreatedFileFullName, t.IsDefault)
		}
		return w.Flush()
	}),
}

var templateImportCmd = &cobra.Command{
	Use:   "import SITE FILE",
	Short: "Import a template file, renaming it if the name is taken",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		t, err := parseType(importType)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read template file: %w", err)
		}

		name := tmplName
		if name == "" {
			base := filepath.Base(args[1])
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}

		tmpl := &models.Template{
			SiteID:              siteID,
			TemplateName:        name,
			Type:                t,
			RelatedFileName:     tmplFileName,
			CreatedFileFullName: tmplOutputName,
			IsDefault:           tmplDefault,
		}
		id, err := a.engine.ImportTemplate(ctx, tmpl, string(data), userID)
		if err != nil {
			return err
		}
		fmt.Printf("template %d imported as %q (%s)\n", id, tmpl.TemplateName, tmpl.RelatedFileName)
		return nil
	}),
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update SITE ID FILE",
	Short: "Replace the content of a template",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		id, err := parseID(args[1], "template id")
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read template file: %w", err)
		}

		tmpl, err := a.engine.GetTemplate(ctx, id)
		if err != nil {
			return err
		}
		if tmpl == nil || tmpl.SiteID != siteID {
			return fmt.Errorf("template %d not found in site %d", id, siteID)
		}
		if tmplName != "" {
			tmpl.TemplateName = tmplName
		}
		if tmplOutputName != "" {
			tmpl.CreatedFileFullName = tmplOutputName
		}
		if err := a.engine.Update(ctx, tmpl, string(data), userID); err != nil {
			return err
		}
		fmt.Printf("template %d updated\n", id)
		return nil
	}),
}

var templateSetDefaultCmd = &cobra.Command{
	Use:   "set-default SITE ID",
	Short: "Make a template the default of its type",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		id, err := parseID(args[1], "template id")
		if err != nil {
			return err
		}
		if err := a.engine.SetDefault(ctx, siteID, id); err != nil {
			return err
		}
		fmt.Printf("template %d is now the default\n", id)
		return nil
	}),
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete SITE ID",
	Short: "Delete a template and its content file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		id, err := parseID(args[1], "template id")
		if err != nil {
			return err
		}
		return a.engine.Delete(ctx, siteID, id)
	}),
}

var templateShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the content of a template",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0], "template id")
		if err != nil {
			return err
		}
		content, err := a.engine.GetContent(ctx, id)
		if err != nil {
			return err
		}
		fmt.Print(content)
		return nil
	}),
}

var templateLogsCmd = &cobra.Command{
	Use:   "logs ID",
	Short: "List the content history of a template",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0], "template id")
		if err != nil {
			return err
		}
		logs, err := a.engine.TemplateLogs(ctx, id)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tTIME\tUSER\tLENGTH\tHASH")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.16s\n",
				l.ID, l.CreatedAt.Format("2006-01-02 15:04:05"), l.UserID, l.ContentLength, l.ContentHash)
		}
		return w.Flush()
	}),
}

var templateImportNameCmd = &cobra.Command{
	Use:   "import-name SITE NAME",
	Short: "Print the name an imported template would get",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		siteID, err := parseID(args[0], "site id")
		if err != nil {
			return err
		}
		name, err := a.engine.GenerateUniqueImportName(ctx, siteID, args[1])
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	}),
}

func init() {
	templateListCmd.Flags().StringVarP(&listType, "type", "t", "", "template type (index, channel, content, file)")

	templateImportCmd.Flags().StringVarP(&importType, "type", "t", "file", "template type (index, channel, content, file)")
	templateImportCmd.Flags().StringVar(&tmplName, "name", "", "template name (default: file name)")
	templateImportCmd.Flags().StringVar(&tmplFileName, "file-name", "", "stored file name (default: derived from the name)")
	templateImportCmd.Flags().StringVar(&tmplOutputName, "output", "", "name of the generated page")
	templateImportCmd.Flags().BoolVar(&tmplDefault, "default", false, "make the template the default of its type")

	templateUpdateCmd.Flags().StringVar(&tmplName, "name", "", "new template name")
	templateUpdateCmd.Flags().StringVar(&tmplOutputName, "output", "", "new generated page name")

	templateCmd.AddCommand(templateListCmd, templateImportCmd, templateUpdateCmd, templateSetDefaultCmd,
		templateDeleteCmd, templateShowCmd, templateLogsCmd, templateImportNameCmd)
}
