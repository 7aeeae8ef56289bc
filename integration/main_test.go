//go:build integration
// +build integration

package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// These tests exercise a running API and its Ollama backend end to end.
// Run with: go test -tags=integration ./integration/...

var apiBaseURL string

func TestMain(m *testing.M) {
	apiBaseURL = os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080" // Default to localhost
	}

	fmt.Printf("Running Fablewright Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL)

	os.Exit(m.Run())
}

func TestHealthEndpoint(t *testing.T) {
	resp, err := http.Get(apiBaseURL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from /health, got %d", resp.StatusCode)
	}
}

func TestFullGameTurn(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Minute}

	// Start a new game.
	resp, err := client.Post(apiBaseURL+"/v1/sessions", "application/json",
		bytes.NewReader([]byte(`{"name":"integration run"}`)))
	if err != nil {
		t.Fatalf("Session creation failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	var session struct {
		ID    string `json:"id"`
		Turns []struct {
			StoryText string   `json:"story_text"`
			Choices   []string `json:"choices"`
		} `json:"turns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	if len(session.Turns) != 1 || len(session.Turns[0].Choices) != 3 {
		t.Fatalf("Expected opening turn with 3 choices, got %+v", session.Turns)
	}

	// Play one turn and read the SSE stream.
	actionResp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/actions", apiBaseURL, session.ID),
		"application/json",
		bytes.NewReader([]byte(`{"action":"`+session.Turns[0].Choices[0]+`"}`)))
	if err != nil {
		t.Fatalf("Action request failed: %v", err)
	}
	defer func() { _ = actionResp.Body.Close() }()

	if actionResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from action stream, got %d", actionResp.StatusCode)
	}

	var sawTurnComplete bool
	scanner := bufio.NewScanner(actionResp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: turn_complete") {
			sawTurnComplete = true
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading SSE stream: %v", err)
	}
	if !sawTurnComplete {
		t.Error("Stream ended without a turn_complete event")
	}

	// The completed turn must be fetchable afterwards.
	turnResp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s/turns/1", apiBaseURL, session.ID))
	if err != nil {
		t.Fatalf("Turn fetch failed: %v", err)
	}
	defer func() { _ = turnResp.Body.Close() }()

	if turnResp.StatusCode != http.StatusOK {
		t.Errorf("Expected turn 1 persisted, got status %d", turnResp.StatusCode)
	}
}
