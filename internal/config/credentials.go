package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrIncompleteCredentials = errors.New("telegram credentials incomplete")

// Credentials identify the bot and the single destination chat.
type Credentials struct {
	Token  string
	ChatID string
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.ChatID) != ""
}

type credentialsFile struct {
	Token  string          `json:"telegram_token"`
	ChatID json.RawMessage `json:"chat_id"`
}

// LoadCredentials reads the credentials file and applies environment overrides.
// Environment values win, so a missing file is fine when both are set there.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	fileErr := readCredentialsFile(path, &creds)

	o, err := ParseCredentialOverrides()
	if err != nil {
		return Credentials{}, err
	}
	if o.Token != "" {
		creds.Token = o.Token
	}
	if o.ChatID != "" {
		creds.ChatID = o.ChatID
	}

	if creds.Complete() {
		return creds, nil
	}
	if fileErr != nil {
		return Credentials{}, fileErr
	}
	return Credentials{}, ErrIncompleteCredentials
}

func readCredentialsFile(path string, out *Credentials) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("credentials file: %w", ErrIncompleteCredentials)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("credentials file: %w", err)
	}
	var f credentialsFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("credentials file %s: %w", path, err)
	}
	out.Token = strings.TrimSpace(f.Token)
	out.ChatID = chatIDString(f.ChatID)
	return nil
}

// chatIDString accepts both "chat_id": 123 and "chat_id": "@channel".
func chatIDString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}
