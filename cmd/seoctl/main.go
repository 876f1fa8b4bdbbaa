// Command seoctl prints the metadata, structured data and sitemap the site serves,
// without starting the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
	"github.com/hilmarvdveen/hilmar-cv/internal/seo"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "seoctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	pageFlags := []cli.Flag{
		&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Value: string(seo.Homepage), Usage: "page type"},
		&cli.StringFlag{Name: "locale", Aliases: []string{"l"}, Usage: "locale, defaults to the profile default"},
		&cli.StringFlag{Name: "slug", Usage: "post slug for blog-post pages"},
	}
	return &cli.App{
		Name:      "seoctl",
		Usage:     "inspect the generated SEO output of the site",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", EnvVars: []string{"SITE_PROFILE_PATH"}, Usage: "site profile YAML, defaults to the embedded profile"},
			&cli.StringFlag{Name: "base-url", EnvVars: []string{"SITE_BASE_URL"}, Usage: "override the canonical origin"},
		},
		Commands: []*cli.Command{
			{
				Name:   "meta",
				Usage:  "print page metadata as JSON",
				Flags:  pageFlags,
				Action: metaAction,
			},
			{
				Name:   "jsonld",
				Usage:  "print the JSON-LD graph of a page",
				Flags:  pageFlags,
				Action: jsonldAction,
			},
			{
				Name:   "head",
				Usage:  "print the rendered <head> markup of a page",
				Flags:  pageFlags,
				Action: headAction,
			},
			{
				Name:   "sitemap",
				Usage:  "print sitemap.xml",
				Action: sitemapAction,
			},
			{
				Name:   "robots",
				Usage:  "print robots.txt",
				Action: robotsAction,
			},
		},
	}
}

func generator(c *cli.Context) (*seo.Generator, error) {
	var (
		p   *profile.Profile
		err error
	)
	if path := c.String("profile"); path != "" {
		p, err = profile.Load(path)
	} else {
		p, err = profile.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if base := c.String("base-url"); base != "" {
		if p, err = p.WithBaseURL(base); err != nil {
			return nil, err
		}
	}
	return seo.NewGenerator(p)
}

func page(c *cli.Context) (seo.PageSEO, error) {
	gen, err := generator(c)
	if err != nil {
		return seo.PageSEO{}, err
	}
	pt, ok := seo.ParsePageType(c.String("page"))
	if !ok {
		return seo.PageSEO{}, fmt.Errorf("unknown page type %q", c.String("page"))
	}
	locale := c.String("locale")
	if locale == "" {
		locale = gen.Profile().DefaultLocale
	}
	if !gen.Profile().SupportsLocale(locale) {
		return seo.PageSEO{}, fmt.Errorf("unsupported locale %q", locale)
	}
	return gen.For(context.Background(), pt, locale, c.String("slug"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func metaAction(c *cli.Context) error {
	p, err := page(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, p.Metadata)
}

func jsonldAction(c *cli.Context) error {
	p, err := page(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, p.JSONLD)
}

func headAction(c *cli.Context) error {
	p, err := page(c)
	if err != nil {
		return err
	}
	head, err := seo.RenderHead(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, head)
	return err
}

func sitemapAction(c *cli.Context) error {
	gen, err := generator(c)
	if err != nil {
		return err
	}
	raw, err := gen.Sitemap(gen.SitemapPages())
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(raw)
	return err
}

func robotsAction(c *cli.Context) error {
	gen, err := generator(c)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.App.Writer, gen.Robots())
	return err
}
