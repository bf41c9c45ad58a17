// Package cli is the interactive front end: a readline loop that turns
// commands into session intents and surfaces confirmation prompts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/yewfence/blogctl/internal/domain"
	"github.com/yewfence/blogctl/internal/editing"
	"github.com/yewfence/blogctl/internal/gate"
	"github.com/yewfence/blogctl/internal/logger"
)

// ErrQuit signals a clean exit requested by the user.
var ErrQuit = errors.New("quit")

// CLI drives one editing session from a terminal.
type CLI struct {
	session *editing.Session
	gate    *gate.Gate
	rl      *readline.Instance
	logger  logger.Logger
	out     io.Writer
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("add"),
		readline.PcItem("edit"),
		readline.PcItem("rm"),
		readline.PcItem("preview"),
		readline.PcItem("download"),
		readline.PcItem("upload"),
		readline.PcItem("export"),
		readline.PcItem("export-zip"),
		readline.PcItem("reload"),
		readline.PcItem("passwd"),
		readline.PcItem("logout"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// New builds the CLI around an existing session and gate.
func New(session *editing.Session, g *gate.Gate, log logger.Logger) (*CLI, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "blogctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init readline: %w", err)
	}

	return &CLI{
		session: session,
		gate:    g,
		rl:      rl,
		logger:  log,
		out:     rl.Stdout(),
	}, nil
}

// Close releases the terminal.
func (c *CLI) Close() error {
	return c.rl.Close()
}

// Run authenticates, opens the session and processes commands until
// quit or EOF.
func (c *CLI) Run(ctx context.Context) error {
	if err := c.login(ctx); err != nil {
		return err
	}

	for {
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		if err := c.dispatch(ctx, strings.Fields(strings.TrimSpace(line))); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// login loops on the password prompt until the session opens. A failed
// index load aborts the attempt but not the loop.
func (c *CLI) login(ctx context.Context) error {
	for {
		pw, err := c.rl.ReadPassword("password: ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return ErrQuit
			}
			return fmt.Errorf("failed to read password: %w", err)
		}

		if err := c.session.Login(string(pw)); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		if err := c.session.Open(ctx); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			c.session.Logout()
			continue
		}
		return nil
	}
}

func (c *CLI) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "list":
		return c.list()
	case "add":
		return c.add()
	case "edit":
		return c.edit(ctx, args[1:])
	case "rm":
		return c.remove(ctx, args[1:])
	case "preview":
		return c.preview(ctx, args[1:])
	case "download":
		return c.download(ctx, args[1:])
	case "upload":
		return c.upload(ctx, args[1:])
	case "export":
		return c.export(ctx)
	case "export-zip":
		return c.exportZip(ctx)
	case "reload":
		return c.reload(ctx)
	case "passwd":
		return c.passwd(ctx)
	case "logout":
		c.session.Logout()
		return c.login(ctx)
	case "help":
		c.help()
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
}

// runGated runs a session operation in the background and pumps the
// gate while it is in flight, so the confirmation prompt can use the
// same terminal the command came from.
func (c *CLI) runGated(ctx context.Context, op func(ctx context.Context) error) error {
	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	for {
		select {
		case req := <-c.gate.Requests():
			req.Resolve(c.prompt(req))
		case err := <-done:
			return err
		}
	}
}

// prompt asks for an explicit yes. Anything but y/yes is a refusal,
// including an interrupted read.
func (c *CLI) prompt(req *gate.Request) bool {
	fmt.Fprintf(c.out, "%s\n", req.Message)
	c.rl.SetPrompt(fmt.Sprintf("%s [y/N]: ", req.Title))
	defer c.rl.SetPrompt("blogctl> ")

	line, err := c.rl.Readline()
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *CLI) list() error {
	posts, err := c.session.Posts()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Date, p.Status, p.Title)
	}
	return tw.Flush()
}

func (c *CLI) add() error {
	post, err := c.session.AddPost()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added draft %s\n", post.ID)
	return nil
}

// edit applies field=value pairs to one post, e.g.
// edit 42 title="New title" status=hidden
func (c *CLI) edit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: edit <id> field=value ...")
	}

	patch, err := parsePatch(args[1:])
	if err != nil {
		return err
	}

	var applied bool
	err = c.runGated(ctx, func(ctx context.Context) error {
		var err error
		applied, err = c.session.SavePost(ctx, args[0], patch)
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(c.out, "not saved")
		return nil
	}
	fmt.Fprintln(c.out, "saved")
	return nil
}

func (c *CLI) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rm <id>")
	}

	var applied bool
	err := c.runGated(ctx, func(ctx context.Context) error {
		var err error
		applied, err = c.session.RemovePost(ctx, args[0])
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(c.out, "not removed")
		return nil
	}
	fmt.Fprintln(c.out, "removed")
	return nil
}

func (c *CLI) preview(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: preview <id>")
	}
	text, err := c.session.PreviewBody(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, text)
	return nil
}

func (c *CLI) download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: download <id>")
	}
	path, err := c.session.DownloadBody(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *CLI) upload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: upload <id> <file.md>")
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}

	var applied bool
	err = c.runGated(ctx, func(ctx context.Context) error {
		var err error
		applied, err = c.session.ReplaceBody(ctx, args[0], string(content))
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(c.out, "not replaced")
		return nil
	}
	fmt.Fprintln(c.out, "replaced")
	return nil
}

func (c *CLI) export(ctx context.Context) error {
	var path string
	err := c.runGated(ctx, func(ctx context.Context) error {
		var err error
		path, err = c.session.Export(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(c.out, "not exported")
		return nil
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *CLI) exportZip(ctx context.Context) error {
	var path string
	err := c.runGated(ctx, func(ctx context.Context) error {
		var err error
		path, err = c.session.ExportZip(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(c.out, "not exported")
		return nil
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *CLI) reload(ctx context.Context) error {
	var applied bool
	err := c.runGated(ctx, func(ctx context.Context) error {
		var err error
		applied, err = c.session.Reload(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(c.out, "not reloaded")
		return nil
	}
	fmt.Fprintln(c.out, "reloaded")
	return nil
}

func (c *CLI) passwd(ctx context.Context) error {
	oldPw, err := c.rl.ReadPassword("current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	newPw, err := c.rl.ReadPassword("new password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	var applied bool
	err = c.runGated(ctx, func(ctx context.Context) error {
		var err error
		applied, err = c.session.ChangePassword(ctx, string(oldPw), string(newPw))
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(c.out, "password unchanged")
		return nil
	}
	fmt.Fprintln(c.out, "password changed, log in again")
	return c.login(ctx)
}

func (c *CLI) help() {
	fmt.Fprint(c.out, `commands:
  list                     show all posts
  add                      insert a fresh draft at the top
  edit <id> field=value    save metadata changes (title, author, date, summary, note, status, md_file)
  rm <id>                  remove a post
  preview <id>             show the raw body, escaped
  download <id>            write the body to an .md file
  upload <id> <file.md>    replace the body from a local file
  export                   write the index artifact
  export-zip               bundle all bodies into a zip
  reload                   re-fetch the index, discarding local edits
  passwd                   change the password (logs you out)
  logout                   end the session
  quit                     exit
`)
}

// parsePatch turns field=value arguments into a partial update.
func parsePatch(args []string) (domain.Patch, error) {
	var patch domain.Patch
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return domain.Patch{}, fmt.Errorf("expected field=value, got %q", arg)
		}
		value = strings.Trim(value, `"`)

		switch strings.ToLower(key) {
		case "title":
			patch.Title = domain.String(value)
		case "author":
			patch.Author = domain.String(value)
		case "date":
			patch.Date = domain.String(value)
		case "summary":
			patch.Summary = domain.String(value)
		case "note":
			patch.Note = domain.String(value)
		case "md_file", "mdfile":
			patch.MDFile = domain.String(value)
		case "status":
			status := domain.Status(value)
			if !status.Valid() {
				return domain.Patch{}, fmt.Errorf("unknown status %q", value)
			}
			patch.Status = &status
		default:
			return domain.Patch{}, fmt.Errorf("unknown field %q", key)
		}
	}
	return patch, nil
}
