package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"crypto_tycoon/internal/service"

	"github.com/gorilla/websocket"
)

// ws_smoke logs in two users against a running server, subscribes one to
// the market feed and makes the other trade, then prints what arrives.
func main() {
	ticker := flag.String("ticker", "", "existing coin to trade")
	amount := flag.String("amount", "1", "amount to buy")
	flag.Parse()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN not set")
	}
	if *ticker == "" {
		log.Fatal("-ticker is required")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	tokenA := login(base, botToken, 3001, "smokeA")
	tokenB := login(base, botToken, 3002, "smokeB")

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, tokenA), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(map[string]any{"type": "subscribe", "tickers": []string{*ticker}})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"ticker": *ticker, "amount": *amount})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/trade/buy", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenB)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("buy: %v", err)
	}
	res.Body.Close()
	log.Printf("buy status: %d", res.StatusCode)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		log.Printf("got: %s", msg)
	}

	log.Println("smoke test finished")
}

func login(base, botToken string, id int64, username string) string {
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	v.Set("user", fmt.Sprintf(`{"id":%d,"username":%q}`, id, username))

	body, _ := json.Marshal(map[string]string{"init_data": service.BuildInitData(v, botToken)})
	res, err := http.Post("http://"+base+"/api/v1/auth", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("auth %s: %v", username, err)
	}
	defer res.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil || out.Token == "" {
		log.Fatalf("auth %s: status %d", username, res.StatusCode)
	}
	return out.Token
}
