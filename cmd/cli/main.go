package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"client/internal/api"
	"client/internal/domain"
	"client/internal/entitlement"
	"client/internal/gate"
	"client/internal/i18n"
	"client/internal/infra"
	"client/internal/oauth"
	"client/internal/prefs"
	"client/internal/session"
	"client/internal/tokenstore"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	app, err := newApp(cfg, &logger)
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the stored-token session before any command runs.
	app.sessions.Initialize(ctx)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "register":
		err = app.register(ctx, args)
	case "login":
		err = app.login(ctx, args)
	case "logout":
		err = app.logout()
	case "whoami":
		err = app.whoami(ctx)
	case "profile":
		err = app.profile(ctx, args)
	case "usage":
		err = app.usage(ctx)
	case "generate":
		err = app.generate(ctx, args)
	case "audio":
		err = app.audio(ctx, args)
	case "modify":
		err = app.modify(ctx, args)
	case "history":
		err = app.history(ctx, args)
	case "show":
		err = app.show(ctx, args)
	case "bookmark":
		err = app.bookmark(ctx, args)
	case "rate":
		err = app.rate(ctx, args)
	case "delete":
		err = app.deleteContent(ctx, args)
	case "stats":
		err = app.stats(ctx)
	case "lang":
		err = app.lang(args)
	case "theme":
		err = app.theme(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		var denied *gate.SignInRequiredError
		if errors.As(err, &denied) {
			fmt.Fprintln(os.Stderr, app.t("signInRequired"))
			fmt.Fprintf(os.Stderr, "Run %q, then retry %q.\n", os.Args[0]+" login", denied.Destination)
			os.Exit(1)
		}
		exitWithError(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cli <command> [flags]

commands:
  register   create an account (-name, -email, -password)
  login      sign in with credentials (-email, -password) or -google
  logout     sign out and clear stored tokens
  whoami     show the signed-in user and plan
  profile    update profile fields (-name)
  usage      show quota usage for content and audio
  generate   generate marketing text (-name, -location, -type, -products, -customers)
  audio      synthesize narration (-content, -business)
  modify     rework generated content per an instruction (-id or -content, -request)
  history    list past generations (-search, -bookmarked)
  show       print one generation in full (-id)
  bookmark   toggle the bookmark on a generation (-id)
  rate       rate a generation (-id, -rating, -feedback)
  delete     remove a generation from history (-id)
  stats      show aggregate generation statistics
  lang       show or set the interface language (-set en|ne)
  theme      show or set the theme (-set light|dark|system)`)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

type app struct {
	cfg      *infra.Config
	logger   *infra.Logger
	tokens   *tokenstore.Store
	prefs    *prefs.Store
	client   *api.Client
	sessions *session.Provider
	access   *gate.Gate
	eval     *entitlement.Evaluator
	msgs     *i18n.Bundle
}

func newApp(cfg *infra.Config, logger *infra.Logger) (*app, error) {
	tokens := tokenstore.NewStore(cfg.StateDir, logger)
	preferences := prefs.NewStore(cfg.StateDir, logger)

	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.APIBaseURL,
		Tokens:         tokens,
		Logger:         logger,
		Locale:         preferences.Language,
		RequestTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}
	sessions := session.NewProvider(client, tokens, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		prefs:    preferences,
		client:   client,
		sessions: sessions,
		access:   gate.New(sessions),
		eval:     entitlement.New(entitlement.Config{DeveloperEmails: cfg.DeveloperEmails}),
		msgs:     i18n.New(preferences.Language()),
	}, nil
}

func (a *app) t(key string) string { return a.msgs.T(key) }

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		return errors.New("-name, -email and -password are required")
	}
	if err := a.sessions.Register(ctx, *name, *email, *password); err != nil {
		return err
	}
	fmt.Println(a.t("welcome"))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	google := fs.Bool("google", false, "sign in with Google instead of credentials")
	_ = fs.Parse(args)

	if *google {
		return a.googleLogin(ctx)
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required (or use -google)")
	}
	if err := a.sessions.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Println(a.t("welcome"))
	return nil
}

func (a *app) googleLogin(ctx context.Context) error {
	handler := oauth.NewHandler(a.sessions, a.logger, a.cfg.OAuthCallbackAddr)
	if err := handler.Listen(); err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to sign in with Google:")
	fmt.Println("  " + a.client.GoogleLoginURL(handler.RedirectURI()))
	fmt.Println(a.t("checkingAuth"))

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.OAuthWaitTimeout)
	defer cancel()
	if err := handler.Serve(waitCtx); err != nil {
		return err
	}
	fmt.Println(a.t("welcome"))
	return nil
}

func (a *app) logout() error {
	a.sessions.Logout()
	fmt.Println(a.t("signOut"))
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.access.Require(ctx, "whoami")
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	fmt.Printf("%s: %s", a.t("plan"), planLabel(user, a.eval))
	if user.Subscription.Status != "" {
		fmt.Printf(" (%s)", user.Subscription.Status)
	}
	fmt.Println()
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "new display name")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "profile"); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("-name is required")
	}
	if err := a.sessions.UpdateProfile(ctx, api.ProfileUpdate{Name: *name}); err != nil {
		return err
	}
	user, _ := a.sessions.User()
	fmt.Printf("Profile updated: %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *app) usage(ctx context.Context) error {
	if _, err := a.access.Require(ctx, "usage"); err != nil {
		return err
	}
	// Resync counters; the local snapshot can lag behind actual usage.
	if err := a.sessions.RefreshProfile(ctx); err != nil {
		return err
	}
	user, ok := a.sessions.User()
	if !ok {
		return &gate.SignInRequiredError{Destination: "usage"}
	}
	sub := user.Subscription

	fmt.Printf("%s: %s\n", a.t("plan"), planLabel(user, a.eval))
	fmt.Printf("%s: %s\n", a.t("contentUsage"), a.featureUsage(sub, user, domain.FeatureContent))
	fmt.Printf("%s: %s\n", a.t("audioUsage"), a.featureUsage(sub, user, domain.FeatureAudio))
	if !sub.ResetDate.IsZero() {
		fmt.Printf("Resets: %s\n", sub.ResetDate.Format("2006-01-02"))
	}
	if a.eval.IsNearLimit(sub, user) {
		fmt.Println(a.t("nearLimit"))
	}
	return nil
}

func (a *app) featureUsage(sub domain.Subscription, user domain.User, f domain.Feature) string {
	if a.eval.IsUnlimited(sub, user) {
		return a.t("unlimited")
	}
	if sub.Limit(f) <= 0 {
		return a.t("notConfigured")
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", sub.Usage(f), sub.Limit(f), a.eval.UsageRatio(sub, f))
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	name := fs.String("name", "", "business name")
	location := fs.String("location", "", "city or town")
	businessType := fs.String("type", "", "business type")
	products := fs.String("products", "", "products or services offered")
	customers := fs.String("customers", "", "target customers")
	language := fs.String("lang", "", "content language (defaults to the interface language)")
	_ = fs.Parse(args)

	user, err := a.access.Require(ctx, "generate")
	if err != nil {
		return err
	}
	if *name == "" || *location == "" || *businessType == "" {
		return errors.New("-name, -location and -type are required")
	}
	if !a.eval.CanUseFeature(user.Subscription, user, domain.FeatureContent) {
		return errors.New(a.t("quotaReached"))
	}

	lang := *language
	if lang == "" {
		lang = a.prefs.Language()
	}
	fmt.Println(a.t("generating"))
	content, err := a.client.GenerateContent(ctx, domain.BusinessProfile{
		BusinessName:    *name,
		Location:        *location,
		BusinessType:    *businessType,
		Products:        *products,
		TargetCustomers: *customers,
	}, lang)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(content.Content)

	if err := a.sessions.RefreshProfile(ctx); err != nil {
		a.logger.Debug().Err(err).Msg("usage resync after generation failed")
	}
	return nil
}

func (a *app) audio(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("audio", flag.ExitOnError)
	content := fs.String("content", "", "text to narrate")
	business := fs.String("business", "", "business name")
	language := fs.String("lang", "", "narration language (defaults to the interface language)")
	_ = fs.Parse(args)

	user, err := a.access.Require(ctx, "audio")
	if err != nil {
		return err
	}
	if *content == "" {
		return errors.New("-content is required")
	}
	if !a.eval.CanUseFeature(user.Subscription, user, domain.FeatureAudio) {
		return errors.New(a.t("quotaReached"))
	}

	lang := *language
	if lang == "" {
		lang = a.prefs.Language()
	}
	fmt.Println(a.t("generatingAudio"))
	audio, err := a.client.GenerateAudio(ctx, api.AudioRequest{
		Content:      *content,
		Language:     lang,
		BusinessName: *business,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Audio ready: %s", audio.URL)
	if audio.Duration > 0 {
		fmt.Printf(" (%.1fs)", audio.Duration)
	}
	fmt.Println()

	if err := a.sessions.RefreshProfile(ctx); err != nil {
		a.logger.Debug().Err(err).Msg("usage resync after audio failed")
	}
	return nil
}

func (a *app) modify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("modify", flag.ExitOnError)
	id := fs.String("id", "", "history entry to modify")
	content := fs.String("content", "", "text to modify (instead of -id)")
	request := fs.String("request", "", "what to change")
	business := fs.String("business", "", "business name")
	_ = fs.Parse(args)

	user, err := a.access.Require(ctx, "modify")
	if err != nil {
		return err
	}
	if *request == "" {
		return errors.New("-request is required")
	}
	if *id == "" && *content == "" {
		return errors.New("either -id or -content is required")
	}
	if !a.eval.CanUseFeature(user.Subscription, user, domain.FeatureContent) {
		return errors.New(a.t("quotaReached"))
	}

	original := *content
	businessName := *business
	if *id != "" {
		item, err := a.client.Content(ctx, *id)
		if err != nil {
			return err
		}
		original = item.Content
		if businessName == "" {
			businessName = item.BusinessName
		}
	}

	result, err := a.client.Modify(ctx, api.ModifyRequest{
		OriginalContent: original,
		BusinessName:    businessName,
		UserRequest:     *request,
	})
	if err != nil {
		return err
	}
	fmt.Println(result.ModifiedContent)
	if len(result.Modifications) > 0 {
		fmt.Println()
		for _, m := range result.Modifications {
			fmt.Println("- " + m)
		}
	}

	if err := a.sessions.RefreshProfile(ctx); err != nil {
		a.logger.Debug().Err(err).Msg("usage resync after modification failed")
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "history entry to print")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "show"); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	item, err := a.client.Content(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s", item.BusinessName)
	if item.Bookmarked {
		fmt.Printf(" *")
	}
	if item.Rating > 0 {
		fmt.Printf(" (rated %d)", item.Rating)
	}
	fmt.Println()
	if !item.CreatedAt.IsZero() {
		fmt.Println(item.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Println(item.Content)
	return nil
}

func (a *app) bookmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bookmark", flag.ExitOnError)
	id := fs.String("id", "", "history entry to bookmark")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "bookmark"); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if err := a.client.Bookmark(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Bookmark updated.")
	return nil
}

func (a *app) rate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	id := fs.String("id", "", "history entry to rate")
	rating := fs.Int("rating", 0, "rating from 1 to 5")
	feedback := fs.String("feedback", "", "optional feedback")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "rate"); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if *rating < 1 || *rating > 5 {
		return errors.New("-rating must be between 1 and 5")
	}
	if err := a.client.Rate(ctx, *id, *rating, *feedback); err != nil {
		return err
	}
	fmt.Println("Thanks for the feedback.")
	return nil
}

func (a *app) deleteContent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "history entry to delete")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "delete"); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if err := a.client.DeleteContent(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func (a *app) stats(ctx context.Context) error {
	if _, err := a.access.Require(ctx, "stats"); err != nil {
		return err
	}
	stats, err := a.client.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d\n", a.t("contentUsage"), stats.TotalContent)
	fmt.Printf("%s: %d\n", a.t("audioUsage"), stats.TotalAudio)
	fmt.Printf("Bookmarked: %d\n", stats.TotalBookmarked)
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	search := fs.String("search", "", "filter by business name or content")
	bookmarked := fs.Bool("bookmarked", false, "only bookmarked items")
	_ = fs.Parse(args)

	if _, err := a.access.Require(ctx, "history"); err != nil {
		return err
	}
	items, err := a.client.History(ctx)
	if err != nil {
		return err
	}
	items = filterHistory(items, *search, *bookmarked)
	if len(items) == 0 {
		fmt.Println(a.t("historyEmpty"))
		return nil
	}
	for _, item := range items {
		marker := " "
		if item.Bookmarked {
			marker = "*"
		}
		fmt.Printf("%s %-12s %-24s %s\n", marker, item.ID, item.BusinessName, summarize(item.Content))
	}
	return nil
}

func filterHistory(items []domain.GeneratedContent, search string, bookmarked bool) []domain.GeneratedContent {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.GeneratedContent, 0, len(items))
	for _, item := range items {
		if bookmarked && !item.Bookmarked {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.BusinessName), search) &&
			!strings.Contains(strings.ToLower(item.Content), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func summarize(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	// Truncate on runes; Nepali text is multibyte throughout.
	runes := []rune(content)
	if len(runes) > 60 {
		return string(runes[:57]) + "..."
	}
	return content
}

func (a *app) lang(args []string) error {
	fs := flag.NewFlagSet("lang", flag.ExitOnError)
	set := fs.String("set", "", "language to use (en, ne)")
	_ = fs.Parse(args)

	if *set == "" {
		fmt.Println(a.prefs.Language())
		return nil
	}
	fmt.Println(a.prefs.SetLanguage(*set))
	return nil
}

func (a *app) theme(args []string) error {
	fs := flag.NewFlagSet("theme", flag.ExitOnError)
	set := fs.String("set", "", "theme to use (light, dark, system)")
	_ = fs.Parse(args)

	if *set == "" {
		fmt.Println(a.prefs.Theme())
		return nil
	}
	fmt.Println(a.prefs.SetTheme(prefs.Theme(*set)))
	return nil
}

func planLabel(user domain.User, eval *entitlement.Evaluator) string {
	if eval.IsDeveloper(user) {
		return "Developer Edition"
	}
	switch user.Subscription.Plan {
	case domain.PlanPro:
		return "Pro"
	case domain.PlanProPlus:
		return "Pro+"
	default:
		return "Free"
	}
}
