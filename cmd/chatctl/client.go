package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inbox-live/domain"
	"inbox-live/services"
	"inbox-live/websocket"

	gws "github.com/gorilla/websocket"
)

// Client talks to the HTTP API and the live endpoint of one server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Status  int
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 300 {
		failure := &apiError{Status: response.StatusCode}
		_ = json.NewDecoder(response.Body).Decode(failure)
		return failure
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

func (c *Client) Login(ctx context.Context, username, password string) (services.Session, error) {
	var session services.Session
	err := c.do(ctx, http.MethodPost, "/api/users/login", map[string]string{"username": username, "password": password}, &session)
	return session, err
}

func (c *Client) Send(ctx context.Context, receiverID, body string) (domain.Message, error) {
	var message domain.Message
	err := c.do(ctx, http.MethodPost, "/api/messages/send/"+url.PathEscape(receiverID), map[string]string{"message": body}, &message)
	return message, err
}

func (c *Client) Inbox(ctx context.Context) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.do(ctx, http.MethodGet, "/api/messages/conversations", nil, &conversations)
	return conversations, err
}

func (c *Client) History(ctx context.Context, peerID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(peerID), nil, &messages)
	return messages, err
}

// Listen calls onMessage for every pushed message until ctx is done or the connection drops.
// The token is preferred over userID when both are set.
func (c *Client) Listen(ctx context.Context, userID string, onMessage func(domain.Message)) error {
	endpoint := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	query := url.Values{}
	if c.token != "" {
		query.Set("token", c.token)
	} else {
		query.Set("userId", userID)
	}

	conn, _, err := gws.DefaultDialer.DialContext(ctx, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var frame websocket.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil || gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
				return nil
			}
			return err
		}
		if frame.Event == websocket.EventNewMessage {
			onMessage(frame.Message)
		}
	}
}
