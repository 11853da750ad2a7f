package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/client"

	"github.com/radovskyb/watcher"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type clientFlags struct {
	server  string
	session string
	lang    string
	timeout time.Duration
}

var clientEnv = new(clientFlags)

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "note-keeper", "session.json")
}

func defaultServer() string {
	if s := os.Getenv("NOTE_KEEPER_SERVER"); s != "" {
		return s
	}
	return "http://127.0.0.1:9000"
}

// newClient builds a client backed by the session file
// newClient 创建使用会话文件的客户端
func newClient() (*client.Client, error) {
	session, err := client.NewSession(client.NewFileStore(clientEnv.session))
	if err != nil {
		return nil, err
	}
	return client.New(clientEnv.server,
		client.WithSession(session),
		client.WithLang(clientEnv.lang),
		client.WithLogger(bootstrapLogger),
	), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), clientEnv.timeout)
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal, use --password")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}

func parseNoteID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return id, nil
}

func parseHistoryIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid history index %q", s)
	}
	return idx, nil
}

func tagNames(tags []*dto.TagDTO) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ",")
}

func printNotes(w io.Writer, notes []*dto.NoteDTO) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tVERSION\tUPDATED")
	for _, n := range notes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", n.ID, n.Title, tagNames(n.Tags), n.Version, n.UpdatedAt.Time().Format(time.DateTime))
	}
	tw.Flush()
}

func printNote(w io.Writer, n *dto.NoteDTO) {
	fmt.Fprintf(w, "# %s\n", n.Title)
	fmt.Fprintf(w, "id: %d  version: %d  tags: %s\n", n.ID, n.Version, tagNames(n.Tags))
	fmt.Fprintf(w, "created: %s  updated: %s\n\n", n.CreatedAt.Time().Format(time.DateTime), n.UpdatedAt.Time().Format(time.DateTime))
	fmt.Fprintln(w, n.Content)
}

func readContent(content, file string) (string, bool, error) {
	if file == "" {
		return content, content != "", nil
	}
	if file == "-" {
		raw, err := io.ReadAll(os.Stdin)
		return string(raw), true, err
	}
	raw, err := os.ReadFile(file)
	return string(raw), true, err
}

func newAuthCommands() []*cobra.Command {
	var email, password, name string

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := promptPassword("Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			user, err := c.Register(ctx, email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered and logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}
	register.Flags().StringVar(&email, "email", "", "account email")
	register.Flags().StringVar(&password, "password", "", "account password, prompted when empty")
	register.Flags().StringVar(&name, "name", "", "display name")
	_ = register.MarkFlagRequired("email")
	_ = register.MarkFlagRequired("name")

	var loginEmail, loginPassword string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginPassword == "" {
				p, err := promptPassword("Password: ")
				if err != nil {
					return err
				}
				loginPassword = p
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			user, err := c.Login(ctx, loginEmail, loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}
	login.Flags().StringVar(&loginEmail, "email", "", "account email")
	login.Flags().StringVar(&loginPassword, "password", "", "account password, prompted when empty")
	_ = login.MarkFlagRequired("email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return c.Logout()
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			user, err := c.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s (%s)\n", user.ID, user.Name, user.Email)
			return nil
		},
	}

	return []*cobra.Command{register, login, logout, whoami}
}

func newNotesCommand() *cobra.Command {
	notes := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes",
	}

	var search, sortBy, order string
	var listTags []string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			ids, err := client.NewTagCache(c).Resolve(ctx, listTags)
			if err != nil {
				return err
			}
			out, err := c.ListNotes(ctx, client.ListOptions{Search: search, Sort: sortBy, Order: order, Tags: ids})
			if err != nil {
				return err
			}
			printNotes(cmd.OutOrStdout(), out)
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "case-insensitive substring of title or content")
	list.Flags().StringVar(&sortBy, "sort", "", "createdAt, updatedAt or title")
	list.Flags().StringVar(&order, "order", "", "asc or desc")
	list.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "only notes carrying any of these tags")

	var title, content, contentFile string
	var createTags []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := readContent(content, contentFile)
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			ids, err := client.NewTagCache(c).Resolve(ctx, createTags)
			if err != nil {
				return err
			}
			note, err := c.CreateNote(ctx, &dto.NoteCreateRequest{Title: title, Content: body, Tags: ids})
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), note)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "note title")
	create.Flags().StringVar(&content, "content", "", "note content")
	create.Flags().StringVarP(&contentFile, "file", "f", "", "read content from a file, - for stdin")
	create.Flags().StringSliceVarP(&createTags, "tag", "t", nil, "tag names")
	_ = create.MarkFlagRequired("title")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			note, err := c.GetNote(ctx, id)
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), note)
			return nil
		},
	}

	notes.AddCommand(list, create, show, newEditCommand(), newDeleteNoteCommand(), newHistoryCommand(), newDiffCommand(), newRestoreCommand())
	return notes
}

// newEditCommand edits a note through an Editor
// With --watch the file is followed and every write goes through the debounced autosave
// newEditCommand 通过 Editor 编辑笔记，--watch 模式下跟踪文件，每次写入都经过防抖自动保存
func newEditCommand() *cobra.Command {
	var title, content, contentFile string
	var setTags []string
	var watch bool
	var quiet time.Duration

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			if watch && (contentFile == "" || contentFile == "-") {
				return errors.New("--watch needs --file")
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			if cmd.Flags().Changed("tag") {
				ids, err := client.NewTagCache(c).Resolve(ctx, setTags)
				if err != nil {
					return err
				}
				if _, err := c.UpdateNote(ctx, id, &dto.NoteUpdateRequest{Tags: &ids}); err != nil {
					return err
				}
			}

			editor := client.NewEditor(c, id,
				client.WithQuietPeriod(quiet),
				client.WithEditorLogger(bootstrapLogger),
				client.WithOnSaved(func(n *dto.NoteDTO) {
					fmt.Fprintf(out, "saved version %d at %s\n", n.Version, n.UpdatedAt.Time().Format(time.TimeOnly))
				}),
			)
			defer editor.Close()

			if err := editor.Load(ctx); err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				editor.SetTitle(title)
			}
			body, changed, err := readContent(content, contentFile)
			if err != nil {
				return err
			}
			if changed {
				editor.SetContent(body)
			}

			if !watch {
				if !editor.Pending() {
					return nil
				}
				_, err := editor.SaveNow(ctx)
				return err
			}
			return watchFile(cmd.Context(), editor, contentFile)
		},
	}
	edit.Flags().StringVar(&title, "title", "", "new title")
	edit.Flags().StringVar(&content, "content", "", "new content")
	edit.Flags().StringVarP(&contentFile, "file", "f", "", "read content from a file, - for stdin")
	edit.Flags().StringSliceVarP(&setTags, "tag", "t", nil, "replace the tags")
	edit.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and autosave every change of --file")
	edit.Flags().DurationVar(&quiet, "quiet", client.DefaultQuietPeriod, "autosave quiet period")
	return edit
}

// watchFile feeds file writes into the editor until interrupted, then saves what is pending
// watchFile 将文件写入交给编辑器，直到中断，退出前保存未保存的修改
func watchFile(ctx context.Context, editor *client.Editor, path string) error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)
	if err := w.Add(path); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(200 * time.Millisecond)
	}()
	defer w.Close()

	fmt.Fprintf(os.Stderr, "watching %s, press Ctrl+C to stop\n", path)
	for {
		select {
		case <-w.Event:
			raw, err := os.ReadFile(path)
			if err != nil {
				bootstrapLogger.Warn("read watched file", zap.String("path", path), zap.Error(err))
				continue
			}
			editor.SetContent(string(raw))
		case err := <-w.Error:
			bootstrapLogger.Warn("file watcher error", zap.Error(err))
		case err := <-errCh:
			return err
		case <-quit:
			if !editor.Pending() {
				return nil
			}
			saveCtx, cancel := context.WithTimeout(context.Background(), clientEnv.timeout)
			defer cancel()
			_, err := editor.SaveNow(saveCtx)
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func newDeleteNoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return c.DeleteNote(ctx, id)
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "List saved versions of a note, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			history, err := c.History(ctx, id)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tSAVED\tTITLE\tSIZE")
			for i, h := range history {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, h.SavedAt.Time().Format(time.DateTime), h.Title, len(h.Content))
			}
			return tw.Flush()
		},
	}
}

func newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff ID INDEX",
		Short: "Show the changes from a saved version to the current note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			idx, err := parseHistoryIndex(args[1])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			diff, err := c.HistoryDiff(ctx, id, idx)
			if err != nil {
				return err
			}
			dmp := diffmatchpatch.New()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title: %s\n\n", dmp.DiffPrettyText(diff.TitleDiffs))
			fmt.Fprintln(out, dmp.DiffPrettyText(diff.ContentDiffs))
			return nil
		},
	}
}

func newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID INDEX",
		Short: "Restore a saved version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			idx, err := parseHistoryIndex(args[1])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			note, err := c.RestoreHistory(ctx, id, idx)
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), note)
			return nil
		},
	}
}

func newTagsCommand() *cobra.Command {
	tags := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := c.ListTags(ctx)
			if err != nil {
				return err
			}
			for _, t := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", t.ID, t.Name)
			}
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			tag, err := c.CreateTag(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", tag.ID, tag.Name)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a tag and detach it from every note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			cache := client.NewTagCache(c)
			ids, err := cache.Resolve(ctx, args)
			if err != nil {
				return err
			}
			return cache.Delete(ctx, ids[0])
		},
	}

	tags.AddCommand(list, create, del)
	return tags
}

func init() {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running service",
	}

	pf := clientCmd.PersistentFlags()
	pf.StringVar(&clientEnv.server, "server", defaultServer(), "server base URL, or NOTE_KEEPER_SERVER")
	pf.StringVar(&clientEnv.session, "session", defaultSessionPath(), "session file")
	pf.StringVar(&clientEnv.lang, "lang", "", "response language, en or zh")
	pf.DurationVar(&clientEnv.timeout, "timeout", 30*time.Second, "request timeout")

	clientCmd.AddCommand(newAuthCommands()...)
	clientCmd.AddCommand(newNotesCommand(), newTagsCommand())
	rootCmd.AddCommand(clientCmd)
}
