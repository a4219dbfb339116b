package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thereayou/voxus-client/internal/api"
	"github.com/thereayou/voxus-client/internal/chat"
	"github.com/thereayou/voxus-client/internal/config"
	"github.com/thereayou/voxus-client/internal/identity"
	"github.com/thereayou/voxus-client/internal/models"
	"github.com/thereayou/voxus-client/internal/transport"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	session := identity.NewSession()
	client := api.NewClient(cfg.APIURL, session)

	if cfg.Email == "" || cfg.Password == "" {
		log.Fatal("VOXUS_EMAIL and VOXUS_PASSWORD must be set")
	}
	if err := session.SignIn(ctx, client, api.LoginRequest{Email: cfg.Email, Password: cfg.Password}); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	user := session.CurrentUser()
	log.Printf("Signed in as %s", user.DisplayName())

	channel := transport.NewChannel(cfg.WSURL, session, transport.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		HandshakeTimeout:  cfg.HandshakeTimeout,
	})
	channel.OnStateChange(func(connected bool) {
		if connected {
			log.Println("Connected")
		} else {
			log.Println("[WARN] Disconnected, reconnecting...")
		}
	})
	channel.OnNotification(func(n transport.Notification) {
		log.Printf("Notification from %s: %s", n.From.DisplayName(), n.Message)
	})
	if err := channel.Dial(ctx); err != nil {
		log.Fatalf("Transport dial failed: %v", err)
	}
	defer channel.Close()

	room := chat.NewReconciler(cfg.Room, session, client, channel)
	room.Subscribe()
	defer room.Close()

	go func() {
		if err := room.LoadHistory(ctx); err != nil {
			log.Printf("[ERROR] History for %s: %v", cfg.Room, err)
		}
	}()

	go printLoop(room)

	fmt.Printf("Room %s. Type a message, /reply <n> <text>, /quit\n", cfg.Room)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/reply "):
			handleReply(room, strings.TrimPrefix(line, "/reply "))
		default:
			room.Send(line)
		}
	}
}

// handleReply: /reply <n> <text> отвечает на n-е с конца сообщение
func handleReply(room *chat.Reconciler, args string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) != 2 {
		fmt.Println("usage: /reply <n> <text>")
		return
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 1 {
		fmt.Println("usage: /reply <n> <text>")
		return
	}
	msgs := room.Messages()
	if n > len(msgs) {
		fmt.Println("no such message")
		return
	}
	room.SetReplyTarget(msgs[len(msgs)-n])
	room.Send(parts[1])
}

// printLoop печатает новые сообщения по мере появления
func printLoop(room *chat.Reconciler) {
	printed := make(map[string]bool)
	for range time.Tick(300 * time.Millisecond) {
		for _, msg := range room.Messages() {
			if printed[msg.ID] {
				continue
			}
			printed[msg.ID] = true
			printMessage(msg)
		}
	}
}

func printMessage(msg models.Message) {
	marker := ""
	if msg.State == models.StatePending {
		marker = " (sending...)"
	}
	fmt.Printf("[%s] %s: %s%s\n",
		msg.CreatedAt.Local().Format("15:04"),
		msg.Sender.DisplayName(),
		msg.Content,
		marker,
	)
}
