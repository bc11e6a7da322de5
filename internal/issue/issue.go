// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ConfigLoadFailedId Id = iota + 1
	BuildSystemNotFoundId
	NoDefaultSelectionId
	WatchFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	// Issue is a catalog entry: Markdown guidance for one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list when the issue
// carries links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if links := i.ExtLinks(); len(links) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range links {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the issue for the terminal with a glamour style name
// ("auto", "dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration

The configuration file could not be read or does not match the schema.

## Things you can try
- Print the configuration buildscan would use:
~~~
$ buildscan config show
~~~
- Write a fresh default file and edit from there:
~~~
$ buildscan config init
~~~
- Check ` + "`BUILDSCAN_*`" + ` environment variables, which override the file.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	buildSystemNotFoundIssue = &Issue{
		id: BuildSystemNotFoundId,
		mdMsg: `
# No build system found

The directory has no usable ` + "`BuildSystem/<generator>/ConfigStore`" + ` tree, so there
is nothing to scan.

## Things you can try
- Run the generator for the project first, then scan again.
- Point buildscan at the project root:
~~~
$ buildscan scan /path/to/project
~~~
- A generator directory is only picked up when it contains ` + "`ConfigStore`" + `.`,
	}

	noDefaultSelectionIssue = &Issue{
		id: NoDefaultSelectionId,
		mdMsg: `
# No default could be chosen

More than one candidate is available at some level and none of them has an
explicit ` + "`priority`" + ` that beats the others.

## Things you can try
- Name the one you want:
~~~
$ buildscan defaults --generator Ninja --workspace Main
~~~
- Add a ` + "`priority`" + ` field to the descriptor that should win.`,
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# Watching stopped

The file watcher hit an unrecoverable error. On Linux this usually means the
inotify limits are exhausted.

## Things you can try
- Raise the watch limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Ignore generated directories with ` + "`watch.ignore`" + ` in the configuration.`,
		extLinks: []HttpLink{"https://github.com/fsnotify/fsnotify#faq"},
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		buildSystemNotFoundIssue.Id(): buildSystemNotFoundIssue,
		noDefaultSelectionIssue.Id():  noDefaultSelectionIssue,
		watchFailedIssue.Id():         watchFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
