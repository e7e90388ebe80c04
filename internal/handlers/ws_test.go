package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
	"github.com/AnshRaj112/commentwall-backend/internal/services"
	"github.com/gorilla/websocket"
)

func TestFeedDeliversNewComments(t *testing.T) {
	hub := services.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(NewFeedHandler(hub, []string{"http://localhost:3000"}).Serve))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:3000"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Subscribe happens after the upgrade completes; publish until it lands.
	event := services.FeedEvent{Type: services.EventCommentCreated, Comment: &models.Comment{ID: "c1", Content: "hi"}}
	received := make(chan services.FeedEvent, 1)
	go func() {
		var got services.FeedEvent
		if err := conn.ReadJSON(&got); err == nil {
			received <- got
		}
	}()

	deadline := time.After(2 * time.Second)
	for {
		_ = hub.Publish(context.Background(), event)
		select {
		case got := <-received:
			if got.Type != services.EventCommentCreated || got.Comment.ID != "c1" {
				t.Errorf("event = %+v", got)
			}
			return
		case <-deadline:
			t.Fatal("no event received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestFeedRejectsForeignOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(NewFeedHandler(services.NewHub(), []string{"http://localhost:3000"}).Serve))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.net"}})
	if err == nil {
		t.Fatal("dial succeeded, want rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %+v, want 403", resp)
	}
}
