package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const chatSystemPrompt = "You are a trade data assistant for a supply chain " +
	"analytics platform. Answer questions about trade statistics, shipments, " +
	"companies and trade routes concisely, in the language of the question."

var chatClient = &http.Client{Timeout: 120 * time.Second}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
	Stream  bool          `json:"stream"`
}

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type upstreamChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type upstreamChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Chat proxies a conversation to an OpenAI-compatible chat completions
// API. With stream:true the reply is forwarded as SSE frames of
// {"content": ...} ending with {"done": true}; otherwise the full
// reply is returned as {"response": ...}.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chat.APIKey == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "chat is not configured",
		})
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	messages := make([]ChatMessage, 0, len(req.History)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: chatSystemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(upstreamChatRequest{
		Model:    h.chat.Model,
		Messages: messages,
		Stream:   req.Stream,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to encode chat request")
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		chatCompletionsURL(h.chat.BaseURL), bytes.NewReader(body))
	if err != nil {
		h.writeError(w, r, err, "failed to build chat request")
		return
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("Authorization", "Bearer "+h.chat.APIKey)

	resp, err := chatClient.Do(upstream)
	if err != nil {
		slog.Error("chat upstream request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "chat backend unavailable",
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("chat upstream returned error", "status", resp.StatusCode)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "chat backend unavailable",
		})
		return
	}

	if !req.Stream {
		var out upstreamChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Choices) == 0 {
			h.writeError(w, r, fmt.Errorf("malformed chat response: %w", err), "failed to decode chat response")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"response": out.Choices[0].Message.Content,
		})
		return
	}

	h.streamChat(w, resp)
}

// streamChat relays the upstream SSE stream, re-framing each token as
// {"content": str} and closing with {"done": true}.
func (h *Handler) streamChat(w http.ResponseWriter, resp *http.Response) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "streaming unsupported",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk upstreamChatResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		frame, _ := json.Marshal(map[string]string{"content": chunk.Choices[0].Delta.Content})
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}
	if err := scanner.Err(); err != nil {
		slog.Error("chat stream interrupted", "error", err)
	}

	fmt.Fprint(w, "data: {\"done\": true}\n\n")
	flusher.Flush()
}

// chatCompletionsURL normalizes the configured base URL; bare hosts
// get the /v1 prefix so both styles of base URL work.
func chatCompletionsURL(base string) string {
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/chat/completions"
}
