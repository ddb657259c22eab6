package main

import (
	"book-catalog/internal/adapter"
	"book-catalog/internal/config"
	"book-catalog/internal/core"
	"book-catalog/internal/core/model"
	"book-catalog/internal/metrics"
	"book-catalog/internal/view"
	"book-catalog/pkg/http_client"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52c41a"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4d4f"))
	detailStyle  = lipgloss.NewStyle().PaddingLeft(2).Faint(true)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// toastNotifier prints notices to w, one per line, with field details
// indented below.
type toastNotifier struct {
	w io.Writer
}

func (n toastNotifier) Notify(no core.Notice) {
	style := successStyle
	if no.Level == core.NoticeError {
		style = failureStyle
	}
	fmt.Fprintln(n.w, style.Render(no.Message))
	for field, msg := range no.Details {
		fmt.Fprintln(n.w, detailStyle.Render(field+": "+msg))
	}
}

type app struct {
	cfg *config.Config
	ctl *core.Controller
	out io.Writer
	log *slog.Logger
	reg *prometheus.Registry
}

type listFlags struct {
	page, size  int
	title       string
	sortBy, dir string
	searchCol   string
	searchText  string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.size, "size", 0, "page size (defaults to CATALOG_PAGE_SIZE)")
	cmd.Flags().StringVar(&f.title, "title", "", "server-side title filter")
	cmd.Flags().StringVar(&f.sortBy, "sort", model.DefaultSortField, "sort field")
	cmd.Flags().StringVar(&f.dir, "dir", string(model.SortDesc), "sort direction, ASC or DESC")
	cmd.Flags().StringVar(&f.searchCol, "search-col", "", "column to search locally on the fetched page")
	cmd.Flags().StringVar(&f.searchText, "search", "", "text to search for in --search-col")
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}
	var baseURL string

	root := &cobra.Command{
		Use:          "catalog",
		Short:        "Browse and edit the book catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			a.cfg = cfg
			a.log = cfg.Logger(stderr)
			a.reg = prometheus.NewRegistry()
			rec := metrics.New(a.reg)

			client := adapter.NewCatalogClient(cfg.BaseURL, http_client.CreateHTTPClient(cfg.HTTPTimeout, a.log), a.log)
			client.Limiter = adapter.NewRateLimiter(cfg.RateLimit)
			client.Metrics = rec
			a.ctl = core.NewController(client, core.Options{
				Initial:  model.DefaultQueryParams().WithPage(model.DefaultPage, cfg.PageSize),
				Logger:   a.log,
				Metrics:  rec,
				Notifier: toastNotifier{w: stderr},
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.ctl != nil {
				a.ctl.Close()
				a.logCounters(cmd.Context())
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "catalog service address (overrides CATALOG_BASE_URL)")

	root.AddCommand(a.listCmd(), a.editCmd(), a.addCmd())
	return root
}

// logCounters dumps the client counters at debug level.
func (a *app) logCounters(ctx context.Context) {
	if !a.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	families, err := a.reg.Gather()
	if err != nil {
		a.log.Debug("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			a.log.Debug("metric", attrs...)
		}
	}
}

func (a *app) listCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context(), f); err != nil {
				return err
			}
			return a.print(f)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		f    listFlags
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit fields of a book on the selected page and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if err := a.load(cmd.Context(), f); err != nil {
				return err
			}
			if err := a.ctl.BeginEdit(id); err != nil {
				return err
			}
			for _, s := range sets {
				name, value, ok := strings.Cut(s, "=")
				if !ok {
					_ = a.ctl.CancelEdit()
					return fmt.Errorf("--set wants field=value, got %q", s)
				}
				field, ok := model.ParseField(name)
				if !ok {
					_ = a.ctl.CancelEdit()
					return fmt.Errorf("unknown field %q", name)
				}
				if err := a.ctl.UpdateDraftField(field, value); err != nil {
					_ = a.ctl.CancelEdit()
					return err
				}
			}
			if err := a.ctl.SaveEdit(cmd.Context()); err != nil {
				_ = a.print(f)
				return err
			}
			return a.print(f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value to change, repeatable")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	form := model.NewRecordForm(time.Now())
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ctl.AddRecord(cmd.Context(), form); err != nil {
				return err
			}
			return a.print(listFlags{})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&form.Title, "title", "", "title")
	fl.StringVar(&form.Author, "author", "", "author")
	fl.StringVar(&form.Year, "year", form.Year, "year of publication")
	fl.StringVar(&form.Language, "language", "", "language")
	fl.StringVar(&form.Country, "country", "", "country")
	fl.StringVar(&form.Pages, "pages", "", "number of pages")
	fl.StringVar(&form.Link, "link", "", "link without scheme, e.g. en.wikipedia.org/wiki/Dune")
	return cmd
}

// load shows the page the list flags describe with one fetch. When the fetch
// fails the table is still printed so the inline error is visible.
func (a *app) load(ctx context.Context, f listFlags) error {
	size := f.size
	if size < 1 {
		size = a.cfg.PageSize
	}
	err := a.ctl.Navigate(ctx, model.QueryParams{
		Page:          f.page,
		PageSize:      size,
		TitleFilter:   f.title,
		SortField:     f.sortBy,
		SortDirection: model.ParseSortDirection(f.dir),
	})
	if err != nil && a.ctl.ListState().Status == model.StatusFailed {
		_ = a.print(f)
	}
	return err
}

func (a *app) print(f listFlags) error {
	st := a.ctl.ListState()
	opts := view.Options{}
	if f.searchCol != "" {
		field, ok := model.ParseField(f.searchCol)
		if !ok {
			return fmt.Errorf("unknown column %q", f.searchCol)
		}
		st.Records = view.FilterRecords(st.Records, field, f.searchText)
		opts = view.Options{SearchText: f.searchText, SearchedColumn: field}
	}
	tbl := view.Render(st, a.ctl.EditState(), view.DefaultColumns(), opts)
	_, err := fmt.Fprintln(a.out, view.Draw(tbl))
	return err
}
