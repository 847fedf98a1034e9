package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"focusroom/internal/command"
	"focusroom/internal/config"
	"focusroom/internal/engine"
	"focusroom/internal/history"
	"focusroom/internal/image"
	"focusroom/internal/llm"
	"focusroom/internal/logging"
	"focusroom/internal/persona"
	"focusroom/internal/room"
	"focusroom/internal/summary"
	"focusroom/internal/topic"
	"focusroom/internal/types"
)

// ===== STYLES =====

var (
	personaPalette = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // bright cyan
		lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // bright yellow
		lipgloss.NewStyle().Foreground(lipgloss.Color("13")), // bright magenta
		lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // bright green
		lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // bright blue
		lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // bright red
		lipgloss.NewStyle().Foreground(lipgloss.Color("15")), // bright white
	}
	thinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

const divider = "────────────────────────────────────────────────────────────"

const hints = `!observe ["topic"] [rounds]  ·  !focus @name  ·  !focus  ·  !add @name  ·  !kick @name  ·  !topic [text]  ·  !image <path>  ·  !images  ·  !clear  ·  !exit  ·  !help`

// ===== APP =====

// app wires the room session together: one of everything, built at startup.
type app struct {
	cfg      *config.Config
	catalog  *persona.Catalog
	personas types.PersonaStore
	sessions types.HistoryStore
	chat     *llm.OllamaClient
	analyst  *llm.OllamaClient
	topics   *topic.Provider
	images   *image.Service
	composer *summary.Composer

	room   *room.Room
	engine *engine.Engine
	reader *bufio.Reader

	// catalog key -> persona ID, for rendering colors by key position
	colorIndex map[string]int
}

func runRoom() error {
	cfg, err := config.LoadFromWorkspace(workspace)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Initialize(workspace); err != nil {
		return err
	}
	defer logging.CloseAll()

	sessionID := uuid.New().String()
	logging.Session("Session %s starting", sessionID)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	store, err := persona.NewSQLiteStore(resolvePath(cfg.Store.DatabasePath))
	if err != nil {
		return fmt.Errorf("failed to open persona store: %w", err)
	}
	defer store.Close()

	a := &app{
		cfg:      cfg,
		catalog:  catalog,
		personas: store,
		chat: llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model,
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithTimeout(cfg.GetLLMTimeout())),
		analyst: llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model,
			llm.WithTemperature(0.3),
			llm.WithTimeout(cfg.GetLLMTimeout())),
		topics:     topic.NewProvider(),
		reader:     bufio.NewReader(os.Stdin),
		colorIndex: make(map[string]int),
	}
	a.composer = summary.NewComposer(a.analyst, resolvePath(cfg.Room.SummariesDir))

	if noRedis {
		a.sessions = history.NewMemoryStore()
		a.images = image.NewService(a.visionClient(), image.NewMemoryCache(), cfg.Image.MaxBytes)
		sysPrint("[Running without Redis — history will not survive this session.]")
	} else {
		redisStore, err := history.NewRedisStore(history.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.GetSessionTTL(),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis (use --no-redis to run without it): %w", err)
		}
		a.sessions = redisStore
		a.images = image.NewService(a.visionClient(),
			image.NewRedisCache(redisStore.Client(), cfg.GetImageTTL()), cfg.Image.MaxBytes)
	}

	for i, entry := range catalog.Entries() {
		a.colorIndex[entry.ID] = i
	}

	return a.run()
}

// visionClient returns the cloud vision client, or nil when no API key is
// configured (image commands degrade with a clear message).
func (a *app) visionClient() image.VisionClient {
	if a.cfg.Vision.APIKey == "" {
		return nil
	}
	return llm.NewOllamaClient(a.cfg.Vision.BaseURL, a.cfg.Vision.Model,
		llm.WithAPIKey(a.cfg.Vision.APIKey),
		llm.WithTimeout(a.cfg.GetVisionTimeout()))
}

// ===== SESSION FLOW =====

func (a *app) run() error {
	printBanner()
	if a.cfg.Vision.APIKey == "" {
		sysPrint("[No OLLAMA_API_KEY set — !image will be unavailable this session.]")
	}

	entries, ok := a.choosePersonas()
	if !ok {
		return nil
	}

	ctx := context.Background()
	initial := make([]types.Persona, 0, len(entries))
	for _, entry := range entries {
		sysPrint(fmt.Sprintf("[Loading %s...]", entry.Name))
		p, err := persona.Load(ctx, a.personas, entry)
		if err != nil {
			return fmt.Errorf("failed to load %s (did you run `focusroom seed`?): %w", entry.Name, err)
		}
		initial = append(initial, p)
	}

	topicText := a.promptTopic()
	topicContext := a.topics.Fetch(ctx, topicText)

	r, err := room.New(initial, topicText, topicContext)
	if err != nil {
		return err
	}
	a.room = r
	a.engine = engine.New(r, a.chat, a.sessions, engine.Options{
		ObserveRounds: a.cfg.Room.ObserveRounds,
		ImageBriefs:   a.images.Briefs,
	})

	sysPrint("\n" + divider)
	sysPrint(fmt.Sprintf("  Room: %s ready", strings.Join(r.ActiveNames(), ", ")))
	sysPrint(fmt.Sprintf("  Topic: %s", r.Topic()))
	sysPrint(divider + "\n")

	for {
		line, err := a.readLine(a.promptLabel())
		if err != nil {
			line = "!exit"
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := command.Parse(line, a.catalog)
		if err != nil {
			a.printParseError(err)
			continue
		}

		if done := a.dispatch(ctx, cmd); done {
			return nil
		}
	}
}

// dispatch executes one parsed command. Returns true when the session ends.
func (a *app) dispatch(ctx context.Context, cmd command.Command) bool {
	switch cmd.Kind {
	case command.Exit:
		a.closeRoom(ctx)
		return true

	case command.Help:
		printHelp()

	case command.Reset:
		if err := a.engine.ResetHistories(ctx); err != nil {
			sysPrint(fmt.Sprintf("[Reset failed: %v]", err))
		} else {
			sysPrint("[Memory cleared — all personas reset to default.]")
		}

	case command.AddPersona:
		a.addPersona(ctx, cmd.Target)

	case command.KickPersona:
		a.kickPersona(cmd.Target)

	case command.Focus:
		a.focusPersona(cmd.Target)

	case command.Unfocus:
		a.room.ClearFocus()
		sysPrint("[Focus cleared — all active personas will respond.]")

	case command.Observe:
		a.observe(ctx, cmd.Seed, cmd.Rounds)
		printHints()

	case command.TopicSet:
		sysPrint(fmt.Sprintf("[Switching topic to: %s]", cmd.Text))
		a.room.SetTopic(cmd.Text, a.topics.Fetch(ctx, cmd.Text))
		a.room.Append(types.NewEntry(types.EntrySystem, "Topic changed to: "+cmd.Text))
		sysPrint(fmt.Sprintf("[Context loaded. Personas are now briefed on: %s]", cmd.Text))

	case command.TopicReset:
		def := a.cfg.Room.DefaultTopic
		a.room.SetTopic(def, a.topics.Fetch(ctx, def))
		sysPrint(fmt.Sprintf("[Topic reset to default: %s]", def))

	case command.ImageLoad:
		a.loadImage(ctx, cmd.ImagePath)

	case command.ImageClear:
		a.images.Clear(ctx)
		a.room.ClearImages()
		a.room.Append(types.NewEntry(types.EntrySystem, "Image context cleared."))
		sysPrint("[All images removed from the room.]")

	case command.ImageList:
		a.listImages()

	case command.Message:
		if cmd.ImagePath != "" {
			a.loadImage(ctx, cmd.ImagePath)
		}
		if cmd.Text == "" && !cmd.HasTarget {
			return false
		}
		a.message(ctx, cmd)
	}
	return false
}

// ===== CONVERSATION =====

func (a *app) message(ctx context.Context, cmd command.Command) {
	addressee := ""
	if cmd.HasTarget {
		if _, present := a.room.Lookup(cmd.Target.ID); !present {
			sysPrint(fmt.Sprintf("[%s is not in the room. Use !add @%s first.]", cmd.Target.Name, cmd.Target.Handle()))
			return
		}
		addressee = cmd.Target.ID
	}

	text := cmd.Text
	if text == "" {
		// Bare @mention: hand the floor over without a question.
		text = "Go ahead."
	}

	if err := a.engine.Ask(ctx, text, addressee, a.renderEvent); err != nil {
		sysPrint(fmt.Sprintf("[Turn aborted: %v]", err))
		return
	}

	if focused, ok := a.room.Focus(); ok {
		var observers []string
		for _, name := range a.room.ActiveNames() {
			if name != focused.Name {
				observers = append(observers, name)
			}
		}
		if len(observers) > 0 {
			verb := "are"
			if len(observers) == 1 {
				verb = "is"
			}
			sysPrint(fmt.Sprintf("  [%s %s observing]", strings.Join(observers, ", "), verb))
		}
	}
	printHints()
}

func (a *app) observe(ctx context.Context, seed string, rounds int) {
	if rounds <= 0 {
		rounds = a.cfg.Room.ObserveRounds
	}
	roundWord := "rounds"
	if rounds == 1 {
		roundWord = "round"
	}

	sysPrint("\n" + divider)
	if seed != "" {
		sysPrint(fmt.Sprintf("  Topic: %q", seed))
	}
	sysPrint(fmt.Sprintf("  [Observing for %d %s — Ctrl+C to stop early]", rounds, roundWord))
	sysPrint(divider + "\n")

	// Ctrl+C cancels between model calls; completed exchanges stay.
	obsCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.engine.Observe(obsCtx, seed, rounds, a.renderEvent); err != nil {
		sysPrint(fmt.Sprintf("[%v]", err))
		return
	}
	if obsCtx.Err() != nil {
		sysPrint("\n[Observation stopped.]")
	}
}

func (a *app) renderEvent(ev types.TurnEvent) {
	if !ev.OK() {
		sysPrint(fmt.Sprintf("[%s could not respond: %v]", ev.PersonaName, ev.Err))
		return
	}
	if ev.Thinking != "" {
		fmt.Println(thinkStyle.Render(fmt.Sprintf("  💭 %s thinks: %s", ev.PersonaName, ev.Thinking)))
		fmt.Println()
	}
	style := a.styleFor(ev.PersonaID)
	fmt.Printf("%s %s\n", style.Bold(true).Render(ev.PersonaName+":"), ev.Visible)
	sysPrint(divider)
}

// ===== ROSTER COMMANDS =====

func (a *app) addPersona(ctx context.Context, entry persona.CatalogEntry) {
	if _, present := a.room.Lookup(entry.ID); present {
		sysPrint(fmt.Sprintf("[%s is already in the room.]", entry.Name))
		return
	}
	sysPrint(fmt.Sprintf("[Loading %s...]", entry.Name))
	p, err := persona.Load(ctx, a.personas, entry)
	if err != nil {
		sysPrint(fmt.Sprintf("[Could not load %s: %v]", entry.Name, err))
		return
	}
	if err := a.room.Add(p); err != nil {
		sysPrint(fmt.Sprintf("[%v]", err))
		return
	}
	fmt.Println(a.styleFor(p.ID).Render(fmt.Sprintf("[%s has joined the room.]", p.Name)))
	a.room.Append(types.NewEntry(types.EntrySystem, p.Name+" joined the room."))
}

func (a *app) kickPersona(entry persona.CatalogEntry) {
	err := a.room.Remove(entry.ID)
	switch {
	case errors.Is(err, types.ErrNotPresent):
		sysPrint(fmt.Sprintf("[%s is not in the room.]", entry.Name))
	case errors.Is(err, types.ErrLastPersona):
		sysPrint(fmt.Sprintf("[%s is the last persona — a room cannot be empty. Use !exit to close it.]", entry.Name))
	case err != nil:
		sysPrint(fmt.Sprintf("[%v]", err))
	default:
		fmt.Println(a.styleFor(entry.ID).Render(fmt.Sprintf("[%s has left the room.]", entry.Name)))
		a.room.Append(types.NewEntry(types.EntrySystem, entry.Name+" left the room."))
	}
}

func (a *app) focusPersona(entry persona.CatalogEntry) {
	if err := a.room.SetFocus(entry.ID); err != nil {
		if errors.Is(err, types.ErrNotPresent) {
			sysPrint(fmt.Sprintf("[%s is not in the room. Use !add @%s first.]", entry.Name, entry.Handle()))
		} else {
			sysPrint(fmt.Sprintf("[%v]", err))
		}
		return
	}
	var observers []string
	for _, name := range a.room.ActiveNames() {
		if name != entry.Name {
			observers = append(observers, name)
		}
	}
	suffix := ""
	if len(observers) > 0 {
		verb := "are"
		if len(observers) == 1 {
			verb = "is"
		}
		suffix = fmt.Sprintf(" (%s %s observing)", strings.Join(observers, ", "), verb)
	}
	sysPrint(fmt.Sprintf("[Focused on %s%s.]", entry.Name, suffix))
}

// ===== IMAGES =====

func (a *app) loadImage(ctx context.Context, path string) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	sysPrint(fmt.Sprintf("[Analyzing image: %s...]", path))
	img, cached, err := a.images.Analyze(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, image.ErrTooLarge), errors.Is(err, image.ErrUnsupportedFormat):
			sysPrint(fmt.Sprintf("[%v]", err))
		case errors.Is(err, types.ErrImageAnalysis):
			sysPrint(fmt.Sprintf("[Image analysis failed: %v]", err))
		default:
			sysPrint(fmt.Sprintf("[%v]", err))
		}
		return
	}

	a.room.AddImage(room.ImageRef{Filename: img.Filename, Hash: img.Hash})
	status := "analyzed"
	if cached {
		status = "cached"
	}
	count := len(a.room.Images())
	plural := "s"
	if count == 1 {
		plural = ""
	}
	sysPrint(fmt.Sprintf("[Image %s (%d image%s in room) — all personas are now briefed on: %s]",
		status, count, plural, img.Filename))
	a.room.Append(types.NewEntry(types.EntrySystem, "Image loaded: "+img.Filename))
}

func (a *app) listImages() {
	imgs := a.room.Images()
	if len(imgs) == 0 {
		sysPrint("[No images loaded. Use !image <path> to share one.]")
		return
	}
	sysPrint("\n" + divider)
	sysPrint(fmt.Sprintf("  Images in room (%d):", len(imgs)))
	for i, img := range imgs {
		sysPrint(fmt.Sprintf("  %d. %s  [%s...]", i+1, img.Filename, img.Hash[:8]))
	}
	sysPrint(divider)
}

// ===== EXIT =====

func (a *app) closeRoom(ctx context.Context) {
	names := a.room.ActiveNames()
	transcript := a.room.Close()

	sysPrint("\n[Closing room...]")
	if len(transcript) == 0 {
		sysPrint("[No conversation to save.]")
		sysPrint("[Room closed. Goodbye.]\n")
		return
	}

	sysPrint("[Generating summary, please wait...]")
	path, err := a.composer.Save(ctx, transcript, names, a.room.Topic())
	if err != nil {
		sysPrint(fmt.Sprintf("[Could not save summary: %v]", err))
	} else {
		sysPrint(fmt.Sprintf("[Summary saved to: %s]", path))
	}

	if brief := a.composer.ExitBrief(ctx, transcript, names); brief != "" {
		fmt.Println()
		fmt.Println(boldStyle.Render("  Session insights"))
		for _, line := range strings.Split(brief, "\n") {
			fmt.Println("  " + line)
		}
	}
	sysPrint("[Room closed. Goodbye.]\n")
}

// ===== INPUT HELPERS =====

func (a *app) promptLabel() string {
	if focused, ok := a.room.Focus(); ok {
		return boldStyle.Render(fmt.Sprintf("You → %s", focused.Name))
	}
	return boldStyle.Render(fmt.Sprintf("You → [%s]", strings.Join(a.room.ActiveNames(), ", ")))
}

func (a *app) readLine(label string) (string, error) {
	fmt.Printf("\n%s: ", label)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// choosePersonas shows the selection menu and returns the chosen entries.
// Returns ok=false when the moderator quits.
func (a *app) choosePersonas() ([]persona.CatalogEntry, bool) {
	for {
		sysPrint("\n── Select personas ──────────────────────────────────────")
		for _, entry := range a.catalog.Entries() {
			fmt.Printf("  %s. %s\n", entry.Key, entry.Name)
			if entry.Brief != "" {
				fmt.Println(dimStyle.Render("     " + entry.Brief))
			}
		}
		fmt.Println()
		sysPrint("  Q  — Quit")
		sysPrint("\n  Enter numbers to start the room (e.g. '1 2'):")

		raw, err := a.readLine(">")
		if err != nil || strings.EqualFold(raw, "q") || strings.EqualFold(raw, "quit") {
			return nil, false
		}
		if raw == "" {
			continue
		}

		var chosen []persona.CatalogEntry
		seen := make(map[string]bool)
		for _, part := range strings.Fields(raw) {
			entry, ok := a.catalog.ByKey(part)
			if ok && !seen[entry.Key] {
				chosen = append(chosen, entry)
				seen[entry.Key] = true
			}
		}
		if len(chosen) == 0 {
			sysPrint("[No valid persona numbers. Try again.]")
			continue
		}
		return chosen, true
	}
}

func (a *app) promptTopic() string {
	sysPrint("\n" + divider)
	sysPrint(fmt.Sprintf("  Discussion topic (press Enter for %s):", a.cfg.Room.DefaultTopic))
	sysPrint("  Examples: Nike Air Max · Miele espresso machines · Stoic philosophy")

	raw, err := a.readLine(dimStyle.Render("Topic") + " >")
	if err != nil || raw == "" {
		return a.cfg.Room.DefaultTopic
	}
	return raw
}

func (a *app) printParseError(err error) {
	switch {
	case errors.Is(err, types.ErrUnknownCommand):
		sysPrint(fmt.Sprintf("[%v — type !help for the command list.]", err))
	case errors.Is(err, types.ErrUnknownPersona):
		known := strings.Join(a.catalog.Handles(), ", @")
		sysPrint(fmt.Sprintf("[%v. Known: @%s]", err, known))
	default:
		sysPrint(fmt.Sprintf("[%v]", err))
	}
}

func (a *app) styleFor(personaID string) lipgloss.Style {
	idx, ok := a.colorIndex[personaID]
	if !ok {
		idx = len(personaPalette) - 1
	}
	return personaPalette[idx%len(personaPalette)]
}

// ===== STATIC OUTPUT =====

func sysPrint(text string) {
	fmt.Println(systemStyle.Render(text))
}

func printHints() {
	fmt.Println()
	fmt.Println(thinkStyle.Render("  " + hints))
}

func printBanner() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("  FOCUS GROUP SIMULATION  —  Room Mode")
	fmt.Println(strings.Repeat("=", 60))
	sysPrint("  !add @name  !kick @name  !observe  !focus @name  !topic [text]  !clear  !exit  !help")
	fmt.Println()
}

func printHelp() {
	lines := []string{
		divider,
		"  Room Commands",
		divider,
		"  !add @name           Add a persona to the room",
		"  !kick @name          Remove a persona from the room",
		"  !observe             Watch personas discuss (3 rounds by default)",
		`  !observe "topic"     Observe with a specific seed topic`,
		"  !observe [n]         Observe for n rounds",
		"  !focus @name         Direct questions to one persona only",
		"  !focus               Clear focus — all personas respond again",
		"  !topic [text]        Change the discussion topic mid-session",
		"  !topic               Reset to the default topic",
		"  !image <path>        Share an ad image — all personas react in character",
		"  !images              List all images currently loaded in the room",
		"  !image clear         Remove all shared images from the room",
		"  !reset / !clear      Wipe conversation history for all personas",
		"  !exit                Close the room and save a Markdown summary",
		"  !help                Show this help",
		divider,
	}
	for _, line := range lines {
		sysPrint(line)
	}
}
