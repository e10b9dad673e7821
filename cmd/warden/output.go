package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vaultoo/warden/internal/client"
	"github.com/vaultoo/warden/internal/session"
)

func printSessionJSON(s *session.Session) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printStatusJSON(rec *session.Session, resp *client.StatusResponse) {
	out := struct {
		Governed  bool                   `json:"governed"`
		Owner     string                 `json:"owner,omitempty"`
		Requester string                 `json:"requester,omitempty"`
		Grantee   string                 `json:"grantee,omitempty"`
		ExpiresAt time.Time              `json:"expiresAt"`
		Remaining string                 `json:"remaining"`
		Grantor   *client.StatusResponse `json:"grantor,omitempty"`
	}{
		Governed:  true,
		Owner:     rec.Owner,
		Requester: rec.RequesterName,
		Grantee:   rec.DisplayName(),
		ExpiresAt: rec.ExpiresAt,
		Remaining: rec.Remaining(time.Now()).Round(time.Second).String(),
		Grantor:   resp,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
