package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Dir   string `short:"d" name:"dir" help:"Directory to initialize (config is written there as nocms.yaml)"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if i.Dir != "" {
		return RunInit(g, i.Dir, filepath.Join(i.Dir, config.DefaultPath), i.Force)
	}
	return RunInit(g, filepath.Dir(root.Config), root.Config, i.Force)
}

// skeleton is written under the initialized directory. Existing files are
// never overwritten.
var skeleton = map[string]string{
	"layouts/_master.html": `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{if .page.title}}{{.page.title}} | {{end}}{{.config.title}}</title>
</head>
<body>
{{.body}}
<footer>{{.config.description}}{{with revision}} · {{.}}{{end}}</footer>
</body>
</html>
`,
	"layouts/page.html": `<article>
  <h1>{{.page.title}}</h1>
  <p><time>{{formatDate .page.date}}</time> · {{readTime .page}} min read</p>
  {{.page.content}}
</article>
`,
	"pages/index.md": `---
title: Welcome
---
This site is built with **nocms**.

{% prominent %}Edit pages/index.md and run nocms build.{% endprominent %}
`,
	"data/site.yml": "menu:\n  - title: Home\n    url: /index.html\n",
}

// RunInit writes the example configuration and a minimal site skeleton.
func RunInit(g *Global, dir, configPath string, force bool) error {
	out := g.out()
	fmt.Fprintln(out, "Initializing nocms project")
	fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create project directory").
			WithContext("path", dir).
			Build()
	}
	if err := config.Init(configPath, force); err != nil {
		fmt.Fprintln(out, "Initialization failed")
		return err
	}

	files := make([]string, 0, len(skeleton))
	for rel := range skeleton {
		files = append(files, rel)
	}
	sort.Strings(files)
	for _, rel := range files {
		body := skeleton[rel]
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create skeleton directory").
				WithContext("path", filepath.Dir(path)).
				Build()
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write skeleton file").
				WithContext("path", path).
				Build()
		}
		fmt.Fprintf(out, "  created %s\n", rel)
	}
	fmt.Fprintln(out, "initialized successfully")
	return nil
}
