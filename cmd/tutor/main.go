package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/tracer"
	"ai-tutor-be/pkg/events"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/store"

	"github.com/fatih/color"
)

const help = `Commands:
  /new               start a new chat
  /restore <chatID>  resume a persisted chat
  /title <text>      rename the current chat
  /delete            close the current chat
  /quit              exit
Anything else is sent to the tutor.`

func main() {
	dev := flag.Bool("dev", false, "use the in-memory store and offline tutor")
	user := flag.String("user", bootstrap.DevUserID, "student id")
	course := flag.String("course", bootstrap.DevCourseName, "course name")
	watch := flag.Bool("watch", false, "print tutor events from NATS")
	flag.Parse()

	cfg := config.Load()
	if *dev {
		cfg.Tutor.DevMode = true
	}

	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if container.ConsumerService != nil {
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("[WARN] Analysis consumer not started: %v", err)
		}
	}
	if *watch {
		watchEvents(ctx, cfg.Nats)
	}

	c := &cli{container: container, user: *user, course: *course}
	color.Cyan("AI tutor for %s (%s)\n", c.course, c.user)
	fmt.Println(help)
	if err := c.newChat(ctx); err != nil {
		color.Red("Could not start a chat: %v", err)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.New(color.FgGreen, color.Bold).Sprint("you> "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := c.handle(ctx, line); quit {
			return
		}
	}
}

type cli struct {
	container *bootstrap.Container
	user      string
	course    string
	chatID    string
}

func (c *cli) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(help)
	case "/new":
		if err := c.newChat(ctx); err != nil {
			color.Red("Could not start a chat: %v", err)
		}
	case "/restore":
		ok, err := c.container.Tutor.RestoreSession(ctx, strings.TrimSpace(arg), c.course, c.user)
		if err != nil || !ok {
			color.Red("Could not restore %s: %v", arg, err)
			return false
		}
		c.chatID = strings.TrimSpace(arg)
		color.Cyan("Restored %s", c.chatID)
	case "/title":
		err := c.container.Tutor.UpdateChatTitle(ctx, c.chatID, c.user, c.course, arg)
		switch {
		case errors.Is(err, store.ErrTitleAlreadySet):
			color.Yellow("This chat already has a title")
		case err != nil:
			color.Red("Could not rename chat: %v", err)
		}
	case "/delete":
		if c.container.Tutor.DeleteSession(c.chatID) {
			color.Yellow("Closed %s", c.chatID)
		}
	default:
		c.ask(ctx, line)
	}
	return false
}

func (c *cli) newChat(ctx context.Context) error {
	chatID, greeting, err := c.container.Tutor.InitializeSession(ctx, c.user, c.course, time.Now())
	if err != nil {
		return err
	}
	c.chatID = chatID
	color.HiBlack("chat %s", chatID)
	color.Cyan("tutor> %s", greeting.Text)
	return nil
}

func (c *cli) ask(ctx context.Context, text string) {
	tutor := color.New(color.FgCyan)
	tutor.Print("tutor> ")

	res, err := c.container.Tutor.SubmitTurn(ctx, dto.SubmitTurnRequest{
		ChatID:     c.chatID,
		UserID:     c.user,
		CourseName: c.course,
		Text:       text,
	}, func(chunk string) { tutor.Print(chunk) })
	fmt.Println()

	switch {
	case errors.Is(err, store.ErrNotFound):
		color.Yellow("This chat has expired. Use /restore %s or /new.", c.chatID)
		return
	case errors.Is(err, store.ErrRateLimitExceeded):
		color.Yellow("This chat has reached its message limit. Use /new to keep going.")
		return
	case err != nil:
		color.Red("%v", err)
		return
	}

	for _, f := range res.SoftFailures {
		color.HiBlack("(%s unavailable: %v)", f.Channel, f.Err)
	}
	if len(res.Message.RetrievedDocuments) > 0 {
		color.HiBlack("[%d course excerpts used] %s", len(res.Message.RetrievedDocuments), res.Title)
	}
}

func watchEvents(ctx context.Context, cfg config.NatsConfig) {
	if cfg.URL == "" {
		color.Yellow("NATS_URL is not set, event watch disabled")
		return
	}
	sub, err := pktNats.NewSubscriber(cfg.URL, cfg.Stream)
	if err != nil {
		color.Red("Event watch unavailable: %v", err)
		return
	}
	err = sub.Subscribe(ctx, cfg.Subject+".>", "", func(_ context.Context, event events.Event) error {
		color.Magenta("\n[event] %s %s", event.EventType(), event.Timestamp().Format(time.RFC3339))
		return nil
	})
	if err != nil {
		color.Red("Event watch unavailable: %v", err)
		sub.Close()
		return
	}
	go func() {
		<-ctx.Done()
		sub.Close()
	}()
}
